package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/proofpilot/internal/extract"
	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/scenario"
)

const offlineExplanation = "No verification oracle configured; claim left unverified."

// Offline is a deterministic oracle that never touches the network. It
// extracts claims locally and leaves every verdict UNVERIFIED.
type Offline struct {
	extractor *extract.ClaimExtractor
}

// NewOffline creates an offline oracle
func NewOffline() *Offline {
	return &Offline{extractor: extract.NewClaimExtractor()}
}

// Name returns the provider name
func (o *Offline) Name() string {
	return "offline"
}

// IsAvailable always reports true
func (o *Offline) IsAvailable(context.Context) bool {
	return true
}

// ExtractClaims uses the local keyword extractor
func (o *Offline) ExtractClaims(_ context.Context, text string) ([]model.Claim, error) {
	return o.extractor.Extract(text)
}

// Verify returns UNVERIFIED/50 for every claim
func (o *Offline) Verify(_ context.Context, claim model.Claim) (model.VerificationResult, error) {
	return model.VerificationResult{
		ClaimID:     claim.ID,
		Verdict:     model.VerdictUnverified,
		Confidence:  50,
		Explanation: offlineExplanation,
		Signals: model.VerificationSignals{
			SourceCredibility:  0.5,
			ConsensusStrength:  0.5,
			LogicalConsistency: 0.9,
		},
		RawVerdict: model.VerdictUnverified,
	}, nil
}

// CheckConsistency never reports contradictions
func (o *Offline) CheckConsistency(context.Context, []model.Claim, []model.VerificationResult) ([]model.Correction, error) {
	return nil, nil
}

// AnalyzeRisk builds a template risk profile from the verdict counts
func (o *Offline) AnalyzeRisk(_ context.Context, persona model.Persona, stats model.VerdictStats) (model.RiskAnalysis, error) {
	risk := model.RiskAnalysis{
		Summary: fmt.Sprintf("%s profile across %d claim(s) with %d%% average confidence.",
			persona, stats.Total, stats.AverageConfidence),
	}

	if n := stats.Count(model.VerdictFalse); n > 0 {
		risk.IdentifiedRisks = append(risk.IdentifiedRisks, fmt.Sprintf("%d claim(s) assessed as false", n))
		risk.SuggestedActions = append(risk.SuggestedActions, "Remove or correct claims rated False before publication")
	}
	if n := stats.Count(model.VerdictUnverified); n > 0 {
		risk.IdentifiedRisks = append(risk.IdentifiedRisks, fmt.Sprintf("%d claim(s) could not be verified", n))
		risk.SuggestedActions = append(risk.SuggestedActions, "Attach primary sources for unverified claims")
	}
	if stats.Contradictions > 0 {
		risk.IdentifiedRisks = append(risk.IdentifiedRisks, fmt.Sprintf("%d claim(s) contradict other claims", stats.Contradictions))
		risk.SuggestedActions = append(risk.SuggestedActions, "Reconcile contradictory statements")
	}
	if len(risk.IdentifiedRisks) == 0 {
		risk.IdentifiedRisks = []string{"No material risks identified"}
		risk.SuggestedActions = []string{"Spot-check high-impact claims against primary sources"}
	}
	return risk, nil
}

// ClassifySession classifies from the log digest alone
func (o *Offline) ClassifySession(_ context.Context, summary model.LogSummary, intent string) (Classification, error) {
	score := scenario.PriorityScore(summary)

	var signals []string
	if summary.AuthFailures > 0 {
		signals = append(signals, fmt.Sprintf("auth_failures=%d", summary.AuthFailures))
	}
	if summary.TokenReuse {
		signals = append(signals, "token_reuse")
	}
	if summary.UniqueEndpoints > 1 {
		signals = append(signals, fmt.Sprintf("unique_endpoints=%d", summary.UniqueEndpoints))
	}
	if summary.TimeSpanSec > 0 {
		signals = append(signals, fmt.Sprintf("time_span=%.0fs", summary.TimeSpanSec))
	}

	c := Classification{KeySignals: signals}
	switch {
	case score >= scenario.ForensicsThreshold:
		c.Verdict, c.Confidence = ClassMalicious, 0.9
		c.Persona = string(model.PersonaScriptKiddie)
		if summary.TokenReuse {
			c.Persona = string(model.PersonaAutomatedBot)
		}
	case summary.RequestCount > 1 && summary.TimeSpanSec >= 300:
		c.Verdict, c.Confidence = ClassSuspicious, 0.7
		c.Persona = string(model.PersonaReconScanner)
	case summary.RequestCount > 1 && summary.TimeSpanSec < 5 && summary.UAEntropy <= 1:
		c.Verdict, c.Confidence = ClassSuspicious, 0.6
		c.Persona = string(model.PersonaScriptKiddie)
	default:
		c.Verdict, c.Confidence = ClassLegitimate, 0.6
		c.Persona = string(model.PersonaTrustedSystem)
	}

	detail := "no anomalous signals"
	if len(signals) > 0 {
		detail = strings.Join(signals, ", ")
	}
	c.Explanation = fmt.Sprintf("Offline heuristic classification (priority score %d): %s.", score, detail)
	return c, nil
}
