package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/oracle"
	"github.com/ppiankov/proofpilot/internal/persona"
	"github.com/ppiankov/proofpilot/internal/rules"
	"github.com/ppiankov/proofpilot/internal/scenario"
)

const (
	mockClaimID = "sim-1"
	liveClaimID = "sim-0"

	categoryMockSecurity  = "Security"
	categoryForensicAudit = "Forensic Audit"
)

// Simulate classifies a security scenario. Mock runs use the scenario's
// canned response and never touch the oracle; live runs consume one budget
// call. Simulation verdicts are reported as the classifier gave them and do
// not pass through the rule engine.
func (o *Orchestrator) Simulate(ctx context.Context, sc scenario.SecurityScenario, mock bool) (*model.AuditReport, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	summary := scenario.Summarize(sc.Requests)
	run := &model.ScenarioRun{
		ID:              sc.ID,
		Name:            sc.Name,
		ExpectedPersona: sc.ExpectedPersona,
		Summary:         summary,
		PriorityScore:   scenario.PriorityScore(summary),
	}

	var (
		claim  model.Claim
		result model.VerificationResult
		p      model.Persona
	)

	if mock {
		if sc.MockResponse == nil {
			return nil, fmt.Errorf("scenario %s has no mock response", sc.ID)
		}
		claim = model.Claim{ID: mockClaimID, Text: sc.Intent, Category: categoryMockSecurity}
		result = model.VerificationResult{
			ClaimID:     mockClaimID,
			Verdict:     sc.MockResponse.Verdict,
			Confidence:  model.ClampConfidence(sc.MockResponse.Confidence),
			Explanation: sc.MockResponse.Explanation,
			Signals: model.VerificationSignals{
				SourceCredibility:  0.95,
				ConsensusStrength:  0.9,
				LogicalConsistency: 0.98,
			},
			RawVerdict: sc.MockResponse.Verdict,
		}
		p = sc.ExpectedPersona
	} else {
		claim = model.Claim{ID: liveClaimID, Text: sc.Intent, Category: categoryForensicAudit}

		if !o.budget.TryConsume() {
			o.logger.Warn("simulation skipped: budget exhausted", "scenario", sc.ID)
			result = budgetFallback(liveClaimID)
		} else {
			if err := o.limiter.Wait(ctx, o.oracle.Name()); err != nil {
				return nil, err
			}
			class, err := o.oracle.ClassifySession(ctx, summary, sc.Intent)
			if err != nil {
				return nil, fmt.Errorf("classify session %s: %w", sc.ID, err)
			}
			result = classificationResult(class)
			p = classificationPersona(class.Persona)
		}
	}

	result.Sources = []model.Source{}
	result.AuditLog = []model.Adjustment{}
	result.IntegrityHash = rules.IntegrityHash(result.ClaimID, result.Verdict, result.Confidence)

	results := []model.VerificationResult{result}
	stats := persona.Summarize(results)
	if p == "" {
		p = persona.Classify(stats)
	}

	report := o.newReport(model.ModeSimulation)
	report.Mock = mock
	report.Persona = p
	report.Stats = stats
	report.Claims = []model.Claim{claim}
	report.Results = results
	report.Scenario = run
	o.attachRisk(ctx, report)

	o.logger.Info("simulation complete",
		"report", report.ID,
		"scenario", sc.ID,
		"mock", mock,
		"verdict", result.Verdict,
		"persona", p,
		"priority", run.PriorityScore,
	)
	return report, nil
}

func classificationResult(class oracle.Classification) model.VerificationResult {
	verdict := scenario.VerdictFor(class.Verdict)
	return model.VerificationResult{
		ClaimID:     liveClaimID,
		Verdict:     verdict,
		Confidence:  oracle.ScaleConfidence(class.Confidence),
		Explanation: class.Explanation,
		Signals: model.VerificationSignals{
			SourceCredibility:  0.8,
			ConsensusStrength:  0.7,
			LogicalConsistency: 0.9,
		},
		RawVerdict: verdict,
	}
}

// classificationPersona keeps unknown persona labels verbatim
func classificationPersona(label string) model.Persona {
	if p, ok := model.ParsePersona(label); ok {
		return p
	}
	return model.Persona(label)
}
