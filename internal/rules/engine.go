// Package rules applies deterministic corrections to raw oracle verdicts.
package rules

import (
	"fmt"
	"strings"

	"github.com/ppiankov/proofpilot/internal/model"
)

// Rule names are part of the audit contract and appear verbatim in reports
const (
	RuleLinguisticRisk    = "Linguistic Risk Pattern"
	RuleScientificDomain  = "Scientific Domain Strictness"
	RuleFalseVerdictBoost = "False Verdict Confidence Boost"
)

// HedgePhrases trigger the linguistic downgrade, checked in this order
var HedgePhrases = []string{"up to", "as much as", "can reach", "may survive", "could last", "estimated"}

const (
	hedgeConsensusCap      = 0.7
	scientificConfidence   = 89
	scientificThreshold    = 90
	scientificCredibility  = 0.85
	falseBoostThreshold    = 80
	falseBoostedConfidence = 85
)

// Rule transforms a result and reports at most one adjustment.
// A rule must not mutate its input.
type Rule func(claim model.Claim, res model.VerificationResult) (model.VerificationResult, *model.Adjustment)

// Engine folds an ordered list of rules over a raw verification result
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the standard rule order
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			LinguisticRisk,
			ScientificStrictness,
			FalseVerdictBoost,
		},
	}
}

// Apply runs every rule in order and stamps the integrity hash.
// The raw result is not modified; the returned result carries the adjustments as its audit log.
func (e *Engine) Apply(claim model.Claim, raw model.VerificationResult) (model.VerificationResult, []model.Adjustment) {
	res := raw.Clone()
	if res.ClaimID == "" {
		res.ClaimID = claim.ID
	}
	if res.RawVerdict == "" {
		res.RawVerdict = raw.Verdict
	}
	res.Confidence = model.ClampConfidence(res.Confidence)
	res.Signals = res.Signals.Clamped()

	adjustments := []model.Adjustment{}
	for _, rule := range e.rules {
		next, adj := rule(claim, res)
		next.Confidence = model.ClampConfidence(next.Confidence)
		if res.Verdict == model.VerdictFalse && next.Verdict.Affirmative() {
			// FALSE may only have its confidence adjusted
			next.Verdict = res.Verdict
		}
		res = next
		if adj != nil {
			adjustments = append(adjustments, *adj)
		}
	}

	res.AuditLog = adjustments
	res.IntegrityHash = IntegrityHash(res.ClaimID, res.Verdict, res.Confidence)
	return res, adjustments
}

// LinguisticRisk downgrades affirmative verdicts one step when the claim hedges
func LinguisticRisk(claim model.Claim, res model.VerificationResult) (model.VerificationResult, *model.Adjustment) {
	if !res.Verdict.Affirmative() {
		return res, nil
	}
	phrase, ok := matchHedge(claim.Text)
	if !ok {
		return res, nil
	}

	next := model.VerdictUnverified
	if res.Verdict == model.VerdictTrue {
		next = model.VerdictLikelyTrue
	}

	adj := &model.Adjustment{
		RuleName:           RuleLinguisticRisk,
		Priority:           model.PriorityMedium,
		PreviousVerdict:    res.Verdict,
		NewVerdict:         next,
		PreviousConfidence: res.Confidence,
		NewConfidence:      res.Confidence,
		Note:               fmt.Sprintf("Detected hedging language (%q). Downgrading for nuance.", phrase),
	}

	res.Verdict = next
	res.Signals.ConsensusStrength = min(res.Signals.ConsensusStrength, hedgeConsensusCap)
	return res, adj
}

// ScientificStrictness caps near-certain TRUE verdicts in medical and scientific categories
func ScientificStrictness(claim model.Claim, res model.VerificationResult) (model.VerificationResult, *model.Adjustment) {
	category := strings.ToLower(claim.Category)
	if !strings.Contains(category, "medic") && !strings.Contains(category, "scien") {
		return res, nil
	}
	if res.Verdict != model.VerdictTrue || res.Confidence <= scientificThreshold {
		return res, nil
	}

	adj := &model.Adjustment{
		RuleName:           RuleScientificDomain,
		Priority:           model.PriorityHigh,
		PreviousVerdict:    res.Verdict,
		NewVerdict:         model.VerdictLikelyTrue,
		PreviousConfidence: res.Confidence,
		NewConfidence:      scientificConfidence,
		Note:               "Scientific/Medical claims require absolute global consensus. Capping at 'Likely True' for safety.",
	}

	res.Verdict = model.VerdictLikelyTrue
	res.Confidence = scientificConfidence
	res.Signals.SourceCredibility = min(res.Signals.SourceCredibility, scientificCredibility)
	return res, adj
}

// FalseVerdictBoost strengthens weak rejections once a claim is flagged as false
func FalseVerdictBoost(_ model.Claim, res model.VerificationResult) (model.VerificationResult, *model.Adjustment) {
	if res.Verdict != model.VerdictFalse || res.Confidence >= falseBoostThreshold {
		return res, nil
	}

	adj := &model.Adjustment{
		RuleName:           RuleFalseVerdictBoost,
		Priority:           model.PriorityLow,
		PreviousVerdict:    res.Verdict,
		NewVerdict:         res.Verdict,
		PreviousConfidence: res.Confidence,
		NewConfidence:      falseBoostedConfidence,
		Note:               "High discrepancy identified. Strengthening confidence in identified misinformation.",
	}

	res.Confidence = falseBoostedConfidence
	return res, adj
}

func matchHedge(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range HedgePhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
