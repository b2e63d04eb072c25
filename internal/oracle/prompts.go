package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/proofpilot/internal/model"
)

const extractSystemPrompt = `You extract atomic factual claims from text.
Output JSON only: {"claims": [{"id": "c1", "text": "", "category": ""}]}.
Each claim must be a single checkable statement quoted or closely paraphrased from the text.
Category is a short domain label such as Medicine, Science, History, Security or General.`

const verifySystemPrompt = `You are a factual verification engine.
Judge the claim against well-established public sources.
Output JSON only:
{"verdict": "True|Likely True|Unverified|False", "confidence": 0-100, "explanation": "",
 "sources": [{"title": "", "uri": ""}],
 "consensus_strength": 0.0-1.0, "logical_consistency": 0.0-1.0}
Cite only sources you are confident exist. Use Unverified when evidence is thin.`

const consistencySystemPrompt = `You check a set of already-verified claims for mutual contradictions.
Output JSON only: {"corrections": [{"id": "", "inconsistent": true, "suggestedVerdict": "", "reason": ""}]}.
Only list claims that contradict another claim in the set. An empty list is a valid answer.`

const riskSystemPrompt = `You write concise risk profiles for audited documents.
Output JSON only: {"summary": "", "identifiedRisks": [], "suggestedActions": []}.`

const securitySystemPrompt = `You are a security classifier.
Task: Classify session as Legitimate, Suspicious, or Malicious.
Rules: Be conservative. Output JSON only. No markdown.
Schema: { "verdict": "", "confidence": 0.0, "persona": "", "key_signals": [], "explanation": "" }
Persona must be one of: Trusted System (Honeypot), Script Kiddie / Recon, Automated Bot / Replay, Advanced Recon Scanner.`

func buildExtractPrompt(text string) string {
	return "Extract factual claims. JSON only. TEXT: " + text
}

func buildVerifyPrompt(claim model.Claim) string {
	if claim.Category == "" {
		return fmt.Sprintf("Verify: %q", claim.Text)
	}
	return fmt.Sprintf("Verify (%s): %q", claim.Category, claim.Text)
}

type consistencyEntry struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	Verdict model.Verdict `json:"verdict,omitempty"`
}

func buildConsistencyPrompt(claims []model.Claim, results []model.VerificationResult) (string, error) {
	verdicts := make(map[string]model.Verdict, len(results))
	for _, r := range results {
		verdicts[r.ClaimID] = r.Verdict
	}

	entries := make([]consistencyEntry, 0, len(claims))
	for _, c := range claims {
		entries = append(entries, consistencyEntry{ID: c.ID, Text: c.Text, Verdict: verdicts[c.ID]})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return "Check contradictions: " + string(data), nil
}

func buildRiskPrompt(persona model.Persona, stats model.VerdictStats) (string, error) {
	counts, err := json.Marshal(stats.Counts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Risk profile for %s. Stats: %s. Confidence: %d%%", persona, counts, stats.AverageConfidence), nil
}

func buildSessionPrompt(summary model.LogSummary, intent string) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Analyze behavior: %s. Intent: %s", data, intent), nil
}
