package rules

import (
	"fmt"

	"github.com/ppiankov/proofpilot/internal/model"
)

// Fixture is a known rule-engine input with its expected outcome
type Fixture struct {
	Name               string
	Claim              model.Claim
	Input              model.VerificationResult
	ExpectedVerdict    model.Verdict
	ExpectedConfidence int
	ExpectRule         string // Empty means no rule may fire
}

// FixtureOutcome is the result of running one fixture
type FixtureOutcome struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// Fixtures returns the built-in health-check table for the engine
func Fixtures() []Fixture {
	in := func(id string, v model.Verdict, conf int, explanation string) model.VerificationResult {
		return model.VerificationResult{
			ClaimID:     id,
			Verdict:     v,
			Confidence:  conf,
			Explanation: explanation,
			Sources:     []model.Source{},
			Signals:     model.VerificationSignals{SourceCredibility: 0.8, ConsensusStrength: 0.8, LogicalConsistency: 0.9},
		}
	}

	return []Fixture{
		{
			Name:               "Linguistic Downgrade: TRUE -> LIKELY_TRUE",
			Claim:              model.Claim{ID: "1", Text: "A human can live up to 100 years.", Category: "Biology"},
			Input:              in("1", model.VerdictTrue, 95, "Grounding found matches."),
			ExpectedVerdict:    model.VerdictLikelyTrue,
			ExpectedConfidence: 95,
			ExpectRule:         RuleLinguisticRisk,
		},
		{
			Name:               "Linguistic Downgrade: LIKELY_TRUE -> UNVERIFIED",
			Claim:              model.Claim{ID: "2", Text: "It could last as much as a decade.", Category: "General"},
			Input:              in("2", model.VerdictLikelyTrue, 80, "Uncertain evidence."),
			ExpectedVerdict:    model.VerdictUnverified,
			ExpectedConfidence: 80,
			ExpectRule:         RuleLinguisticRisk,
		},
		{
			Name:               "Medical Strictness: Capping TRUE at 89%",
			Claim:              model.Claim{ID: "3", Text: "The treatment is 100% effective.", Category: "Medical Research"},
			Input:              in("3", model.VerdictTrue, 98, "Clinical trials support this."),
			ExpectedVerdict:    model.VerdictLikelyTrue,
			ExpectedConfidence: 89,
			ExpectRule:         RuleScientificDomain,
		},
		{
			Name:               "Medical Strictness: No change if confidence <= 90",
			Claim:              model.Claim{ID: "4", Text: "Aspirin reduces pain.", Category: "Medicine"},
			Input:              in("4", model.VerdictTrue, 90, "Common knowledge."),
			ExpectedVerdict:    model.VerdictTrue,
			ExpectedConfidence: 90,
		},
		{
			Name:               "Confidence Boost: FALSE with low confidence",
			Claim:              model.Claim{ID: "5", Text: "The moon is made of cheese.", Category: "Science"},
			Input:              in("5", model.VerdictFalse, 50, "Physically impossible."),
			ExpectedVerdict:    model.VerdictFalse,
			ExpectedConfidence: 85,
			ExpectRule:         RuleFalseVerdictBoost,
		},
		{
			Name:               "No Downgrade: FALSE with risk phrase",
			Claim:              model.Claim{ID: "6", Text: "It can reach 1000 degrees.", Category: "General"},
			Input:              in("6", model.VerdictFalse, 90, "Actually it only reaches 100."),
			ExpectedVerdict:    model.VerdictFalse,
			ExpectedConfidence: 90,
		},
		{
			// Hedging runs first, so the medical cap sees LIKELY_TRUE and stays silent
			Name:               "Multi-Rule: Medical + Risk Phrase",
			Claim:              model.Claim{ID: "7", Text: "Recovery can take up to 5 days.", Category: "Medicine"},
			Input:              in("7", model.VerdictTrue, 95, "Supported by data."),
			ExpectedVerdict:    model.VerdictLikelyTrue,
			ExpectedConfidence: 95,
			ExpectRule:         RuleLinguisticRisk,
		},
	}
}

// RunFixtures applies the engine to every fixture and reports pass/fail
func RunFixtures(engine *Engine) []FixtureOutcome {
	fixtures := Fixtures()
	outcomes := make([]FixtureOutcome, 0, len(fixtures))

	for _, f := range fixtures {
		res, adjustments := engine.Apply(f.Claim, f.Input)

		ruleMatch := len(adjustments) == 0
		if f.ExpectRule != "" {
			ruleMatch = false
			for _, a := range adjustments {
				if a.RuleName == f.ExpectRule {
					ruleMatch = true
					break
				}
			}
		}

		outcomes = append(outcomes, FixtureOutcome{
			Name:   f.Name,
			Passed: res.Verdict == f.ExpectedVerdict && res.Confidence == f.ExpectedConfidence && ruleMatch,
			Details: fmt.Sprintf("Verdict: %s (Exp: %s), Conf: %d (Exp: %d), Rules: %d",
				res.Verdict, f.ExpectedVerdict, res.Confidence, f.ExpectedConfidence, len(adjustments)),
		})
	}

	return outcomes
}
