package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/proofpilot/internal/model"
)

func raw(id string, verdict model.Verdict, confidence int) model.VerificationResult {
	return model.VerificationResult{
		ClaimID:     id,
		Verdict:     verdict,
		Confidence:  confidence,
		Explanation: "oracle output",
		Signals:     model.VerificationSignals{SourceCredibility: 0.95, ConsensusStrength: 0.9, LogicalConsistency: 0.9},
	}
}

func TestEngine_Fixtures(t *testing.T) {
	engine := NewEngine()

	for _, tc := range Fixtures() {
		t.Run(tc.Name, func(t *testing.T) {
			res, adjustments := engine.Apply(tc.Claim, tc.Input)

			assert.Equal(t, tc.ExpectedVerdict, res.Verdict)
			assert.Equal(t, tc.ExpectedConfidence, res.Confidence)
			if tc.ExpectRule == "" {
				assert.Empty(t, adjustments)
			} else {
				assert.True(t, hasRule(adjustments, tc.ExpectRule), "expected %s in %+v", tc.ExpectRule, adjustments)
			}
		})
	}
}

func TestEngine_HedgeDowngradesOneStep(t *testing.T) {
	engine := NewEngine()

	for _, phrase := range HedgePhrases {
		claim := model.Claim{ID: "h", Text: "The battery " + phrase + " ten hours.", Category: "Technology"}

		res, adj := engine.Apply(claim, raw("h", model.VerdictTrue, 77))
		assert.Equal(t, model.VerdictLikelyTrue, res.Verdict, phrase)
		assert.Equal(t, 77, res.Confidence, phrase)
		require.Len(t, adj, 1, phrase)
		assert.Equal(t, model.PriorityMedium, adj[0].Priority)
		assert.Contains(t, adj[0].Note, phrase)

		res, _ = engine.Apply(claim, raw("h", model.VerdictLikelyTrue, 77))
		assert.Equal(t, model.VerdictUnverified, res.Verdict, phrase)
		assert.Equal(t, 77, res.Confidence, phrase)
	}
}

func TestEngine_HedgeIsCaseInsensitiveAndNamesFirstPhrase(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "h", Text: "Estimated losses are UP TO $4bn.", Category: "Finance"}

	_, adj := engine.Apply(claim, raw("h", model.VerdictTrue, 60))
	require.Len(t, adj, 1)
	assert.Contains(t, adj[0].Note, `"up to"`)
}

func TestEngine_HedgeCapsConsensusSignal(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "h", Text: "Seeds may survive a century.", Category: "Botany"}

	res, _ := engine.Apply(claim, raw("h", model.VerdictTrue, 70))
	assert.Equal(t, 0.7, res.Signals.ConsensusStrength)

	low := raw("h", model.VerdictTrue, 70)
	low.Signals.ConsensusStrength = 0.4
	res, _ = engine.Apply(claim, low)
	assert.Equal(t, 0.4, res.Signals.ConsensusStrength, "cap must never raise the signal")
}

func TestEngine_HedgeIgnoresUnverifiedAndFalse(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "h", Text: "It can reach 1000 degrees.", Category: "General"}

	res, adj := engine.Apply(claim, raw("h", model.VerdictUnverified, 40))
	assert.Equal(t, model.VerdictUnverified, res.Verdict)
	assert.Empty(t, adj)

	res, adj = engine.Apply(claim, raw("h", model.VerdictFalse, 90))
	assert.Equal(t, model.VerdictFalse, res.Verdict)
	assert.Equal(t, 90, res.Confidence)
	assert.Empty(t, adj)
}

func TestEngine_ScientificStrictness(t *testing.T) {
	engine := NewEngine()

	for _, category := range []string{"Medicine", "medical research", "SCIENCE", "Neuroscience", "Scientific"} {
		claim := model.Claim{ID: "s", Text: "The compound lowers blood pressure.", Category: category}
		res, adj := engine.Apply(claim, raw("s", model.VerdictTrue, 91))

		assert.Equal(t, model.VerdictLikelyTrue, res.Verdict, category)
		assert.Equal(t, 89, res.Confidence, category)
		assert.Equal(t, 0.85, res.Signals.SourceCredibility, category)
		require.Len(t, adj, 1, category)
		assert.Equal(t, RuleScientificDomain, adj[0].RuleName)
		assert.Equal(t, model.PriorityHigh, adj[0].Priority)
		assert.Equal(t, 91, adj[0].PreviousConfidence)
		assert.Equal(t, 89, adj[0].NewConfidence)
	}

	claim := model.Claim{ID: "s", Text: "The compound lowers blood pressure.", Category: "Sports"}
	res, adj := engine.Apply(claim, raw("s", model.VerdictTrue, 99))
	assert.Equal(t, model.VerdictTrue, res.Verdict)
	assert.Empty(t, adj)

	claim.Category = "Medicine"
	res, adj = engine.Apply(claim, raw("s", model.VerdictLikelyTrue, 99))
	assert.Equal(t, model.VerdictLikelyTrue, res.Verdict)
	assert.Equal(t, 99, res.Confidence)
	assert.Empty(t, adj)
}

func TestEngine_FalseBoostThreshold(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "f", Text: "The moon is made of cheese.", Category: "Astronomy"}

	for conf := 0; conf < 80; conf += 7 {
		res, adj := engine.Apply(claim, raw("f", model.VerdictFalse, conf))
		assert.Equal(t, 85, res.Confidence, "confidence %d", conf)
		assert.Equal(t, model.VerdictFalse, res.Verdict)
		require.Len(t, adj, 1)
		assert.Equal(t, model.PriorityLow, adj[0].Priority)
	}
	for _, conf := range []int{80, 81, 95, 100} {
		res, adj := engine.Apply(claim, raw("f", model.VerdictFalse, conf))
		assert.Equal(t, conf, res.Confidence)
		assert.Empty(t, adj)
	}
}

func TestEngine_MedicalHedgeScenario(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "7", Text: "Recovery can take up to 5 days.", Category: "Medicine"}

	res, adj := engine.Apply(claim, raw("7", model.VerdictTrue, 95))

	// The hedge rule fires first, so the medical rule no longer sees a TRUE verdict
	assert.Equal(t, model.VerdictLikelyTrue, res.Verdict)
	assert.Equal(t, 95, res.Confidence)
	require.Len(t, adj, 1)
	assert.Equal(t, RuleLinguisticRisk, adj[0].RuleName)
}

func TestEngine_ClampsInput(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "c", Text: "Plain statement.", Category: "General"}

	in := raw("c", model.VerdictTrue, 140)
	in.Signals = model.VerificationSignals{SourceCredibility: 1.4, ConsensusStrength: -2, LogicalConsistency: 0.5}
	res, _ := engine.Apply(claim, in)
	assert.Equal(t, 100, res.Confidence)
	assert.Equal(t, 1.0, res.Signals.SourceCredibility)
	assert.Equal(t, 0.0, res.Signals.ConsensusStrength)

	res, _ = engine.Apply(claim, raw("c", model.VerdictUnverified, -5))
	assert.Equal(t, 0, res.Confidence)
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "m", Text: "Pressure can reach 300 bar.", Category: "Science"}

	in := raw("m", model.VerdictTrue, 97)
	in.Sources = []model.Source{{Title: "NASA", URI: "https://nasa.gov"}}
	in.AuditLog = []model.Adjustment{{RuleName: "stale"}}

	res, _ := engine.Apply(claim, in)
	res.Sources[0].Title = "changed"

	assert.Equal(t, model.VerdictTrue, in.Verdict)
	assert.Equal(t, 97, in.Confidence)
	assert.Equal(t, 0.9, in.Signals.ConsensusStrength)
	assert.Equal(t, "NASA", in.Sources[0].Title)
	assert.Len(t, in.AuditLog, 1)
}

func TestEngine_AuditLogAndRawVerdict(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "a", Text: "Water boils at 100C at sea level.", Category: "General"}

	res, adj := engine.Apply(claim, raw("a", model.VerdictTrue, 99))
	assert.NotNil(t, res.AuditLog)
	assert.Empty(t, res.AuditLog)
	assert.Empty(t, adj)
	assert.Equal(t, model.VerdictTrue, res.RawVerdict)

	noID := raw("", model.VerdictTrue, 99)
	res, _ = engine.Apply(claim, noID)
	assert.Equal(t, "a", res.ClaimID)
}

func TestEngine_FalseNeverBecomesAffirmative(t *testing.T) {
	rogue := func(_ model.Claim, res model.VerificationResult) (model.VerificationResult, *model.Adjustment) {
		res.Verdict = model.VerdictTrue
		res.Confidence = 120
		return res, nil
	}
	engine := &Engine{rules: []Rule{rogue}}

	res, _ := engine.Apply(model.Claim{ID: "x"}, raw("x", model.VerdictFalse, 90))
	assert.Equal(t, model.VerdictFalse, res.Verdict)
	assert.Equal(t, 100, res.Confidence)
}

func TestEngine_IntegrityStamp(t *testing.T) {
	engine := NewEngine()
	claim := model.Claim{ID: "i", Text: "Plain statement.", Category: "General"}

	res, _ := engine.Apply(claim, raw("i", model.VerdictTrue, 88))
	assert.Equal(t, IntegrityHash("i", model.VerdictTrue, 88), res.IntegrityHash)
	assert.True(t, VerifyIntegrity(res))

	res.Confidence = 87
	assert.False(t, VerifyIntegrity(res))
}

func hasRule(adjustments []model.Adjustment, name string) bool {
	for _, a := range adjustments {
		if a.RuleName == name {
			return true
		}
	}
	return false
}

func TestRunFixtures_AllPass(t *testing.T) {
	outcomes := RunFixtures(NewEngine())
	require.Len(t, outcomes, len(Fixtures()))
	for _, o := range outcomes {
		assert.True(t, o.Passed, "%s: %s", o.Name, o.Details)
	}
}
