package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/proofpilot/internal/extract"
	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/oracle"
	"github.com/ppiankov/proofpilot/internal/rules"
	"github.com/ppiankov/proofpilot/internal/scenario"
)

// fakeOracle returns scripted verdicts and counts calls
type fakeOracle struct {
	mu           sync.Mutex
	verifyCalls  int
	verdicts     map[string]model.VerificationResult // by claim ID
	failClaims   map[string]bool
	corrections  []model.Correction
	checkErr     error
	riskErr      error
	class        oracle.Classification
	classErr     error
	classifyRuns int
}

func (f *fakeOracle) Name() string { return "fake" }

func (f *fakeOracle) ExtractClaims(_ context.Context, text string) ([]model.Claim, error) {
	return extract.NewClaimExtractor().ExtractText(text), nil
}

func (f *fakeOracle) Verify(_ context.Context, claim model.Claim) (model.VerificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++

	if f.failClaims[claim.ID] {
		return model.VerificationResult{}, errors.New("oracle unavailable")
	}
	if res, ok := f.verdicts[claim.ID]; ok {
		return res, nil
	}
	return model.VerificationResult{
		ClaimID:     claim.ID,
		Verdict:     model.VerdictTrue,
		Confidence:  75,
		Explanation: "corroborated",
		Signals:     model.VerificationSignals{SourceCredibility: 0.9, ConsensusStrength: 0.8, LogicalConsistency: 0.9},
	}, nil
}

func (f *fakeOracle) CheckConsistency(context.Context, []model.Claim, []model.VerificationResult) ([]model.Correction, error) {
	return f.corrections, f.checkErr
}

func (f *fakeOracle) AnalyzeRisk(_ context.Context, p model.Persona, _ model.VerdictStats) (model.RiskAnalysis, error) {
	if f.riskErr != nil {
		return model.RiskAnalysis{}, f.riskErr
	}
	return model.RiskAnalysis{Summary: "profile " + string(p)}, nil
}

func (f *fakeOracle) ClassifySession(context.Context, model.LogSummary, string) (oracle.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyRuns++
	return f.class, f.classErr
}

func (f *fakeOracle) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = ""
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.HTTP.RespectRobots = false
	return cfg
}

func claimsN(n int) []model.Claim {
	claims := make([]model.Claim, n)
	for i := range claims {
		claims[i] = model.Claim{
			ID:       fmt.Sprintf("c%d", i+1),
			Text:     fmt.Sprintf("The bridge opened to traffic in %d.", 1900+i),
			Category: "General",
		}
	}
	return claims
}

func TestProcessClaims_BudgetFallbackAfterCeiling(t *testing.T) {
	fake := &fakeOracle{}
	orc := NewOrchestrator(testConfig(), fake, nil)

	report, err := orc.ProcessClaims(context.Background(), claimsN(17))
	require.NoError(t, err)

	assert.Equal(t, 15, fake.calls())
	assert.Equal(t, 15, orc.Budget().Used())
	require.Len(t, report.Results, 17)

	for i, res := range report.Results {
		if i < 15 {
			assert.Equal(t, model.VerdictTrue, res.Verdict, "claim %s", res.ClaimID)
			continue
		}
		assert.Equal(t, model.VerdictUnverified, res.Verdict)
		assert.Equal(t, 0, res.Confidence)
		assert.Equal(t, BudgetExceededExplanation, res.Explanation)
		assert.Equal(t, model.VerificationSignals{}, res.Signals)
		assert.True(t, rules.VerifyIntegrity(res))
	}
	assert.Equal(t, "c16", report.Results[15].ClaimID)
	assert.Equal(t, "c17", report.Results[16].ClaimID)
}

func TestProcessClaims_CacheHitDoesNotConsumeBudget(t *testing.T) {
	fake := &fakeOracle{}
	orc := NewOrchestrator(testConfig(), fake, nil)
	claims := claimsN(3)

	_, err := orc.ProcessClaims(context.Background(), claims)
	require.NoError(t, err)
	require.Equal(t, 3, orc.Budget().Used())

	report, err := orc.ProcessClaims(context.Background(), claims)
	require.NoError(t, err)

	assert.Equal(t, 3, orc.Budget().Used())
	assert.Equal(t, 3, fake.calls())
	require.Len(t, report.Results, 3)
	for i, res := range report.Results {
		assert.Equal(t, claims[i].ID, res.ClaimID)
		assert.Equal(t, model.VerdictTrue, res.Verdict)
	}
}

func TestProcessClaims_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false
	fake := &fakeOracle{}
	orc := NewOrchestrator(cfg, fake, nil)

	for range 2 {
		_, err := orc.ProcessClaims(context.Background(), claimsN(2))
		require.NoError(t, err)
	}
	assert.Equal(t, 4, orc.Budget().Used())
	assert.Equal(t, 4, fake.calls())
}

func TestProcessClaims_OracleFailureIsUnverified(t *testing.T) {
	fake := &fakeOracle{failClaims: map[string]bool{"c2": true}}
	orc := NewOrchestrator(testConfig(), fake, nil)

	report, err := orc.ProcessClaims(context.Background(), claimsN(3))
	require.NoError(t, err)

	assert.Equal(t, []string{"c2"}, report.Unverified)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "c1", report.Results[0].ClaimID)
	assert.Equal(t, "c3", report.Results[1].ClaimID)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Len(t, report.Claims, 3)
}

func TestProcessClaims_RulesApplied(t *testing.T) {
	fake := &fakeOracle{verdicts: map[string]model.VerificationResult{
		"c1": {ClaimID: "c1", Verdict: model.VerdictTrue, Confidence: 95,
			Signals: model.VerificationSignals{SourceCredibility: 0.9, ConsensusStrength: 0.9, LogicalConsistency: 0.9}},
	}}
	orc := NewOrchestrator(testConfig(), fake, nil)

	claims := []model.Claim{{ID: "c1", Text: "Tardigrades may survive up to 30 years frozen.", Category: "General"}}
	report, err := orc.ProcessClaims(context.Background(), claims)
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, model.VerdictLikelyTrue, res.Verdict)
	assert.Equal(t, model.VerdictTrue, res.RawVerdict)
	require.NotEmpty(t, res.AuditLog)
	assert.Equal(t, rules.RuleLinguisticRisk, res.AuditLog[0].RuleName)
}

func TestProcessClaims_ConsistencyCorrection(t *testing.T) {
	fake := &fakeOracle{
		verdicts: map[string]model.VerificationResult{
			"c2": {ClaimID: "c2", Verdict: model.VerdictTrue, Confidence: 90},
		},
		corrections: []model.Correction{
			{ClaimID: "c2", Inconsistent: true, SuggestedVerdict: "FALSE", Reason: "contradicts c1"},
		},
	}
	orc := NewOrchestrator(testConfig(), fake, nil)

	report, err := orc.ProcessClaims(context.Background(), claimsN(2))
	require.NoError(t, err)

	res, ok := report.Result("c2")
	require.True(t, ok)
	assert.True(t, res.ConsistencyFlag)
	assert.Equal(t, model.VerdictFalse, res.Verdict)
	assert.Equal(t, model.VerdictTrue, res.OriginalVerdict)
	assert.Equal(t, 80, res.Confidence)
	assert.Equal(t, "Contradiction: contradicts c1", res.CorrectionNote)
	assert.True(t, rules.VerifyIntegrity(res))

	assert.Equal(t, model.PersonaContradictory, report.Persona)
	assert.Equal(t, 1, report.Stats.Contradictions)
}

func TestProcessClaims_CollaboratorFailuresAreSkipped(t *testing.T) {
	fake := &fakeOracle{checkErr: errors.New("consistency down"), riskErr: errors.New("risk down")}
	orc := NewOrchestrator(testConfig(), fake, nil)

	report, err := orc.ProcessClaims(context.Background(), claimsN(2))
	require.NoError(t, err)

	assert.Len(t, report.Results, 2)
	assert.Nil(t, report.Risk)
	assert.Equal(t, model.PersonaFactualCore, report.Persona)
}

func TestProcessClaims_ReportMetadata(t *testing.T) {
	fake := &fakeOracle{}
	orc := NewOrchestrator(testConfig(), fake, nil)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orc.now = func() time.Time { return fixed }

	report, err := orc.ProcessClaims(context.Background(), claimsN(1))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.ID, "PP-AUDIT-"))
	assert.Len(t, report.ID, len("PP-AUDIT-")+8)
	assert.Equal(t, strings.ToUpper(report.ID), report.ID)
	assert.Equal(t, orc.SessionID(), report.SessionID)
	assert.Equal(t, "fake", report.Oracle)
	assert.Equal(t, model.ModeDocument, report.Mode)
	assert.Equal(t, fixed, report.CreatedAt)
	require.NotNil(t, report.Risk)
	assert.Equal(t, "profile "+string(model.PersonaFactualCore), report.Risk.Summary)
}

func TestProcessClaims_Empty(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)

	report, err := orc.ProcessClaims(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, model.PersonaBalancedInquiry, report.Persona)
	assert.Nil(t, report.Risk)
}

func TestProcessClaims_CancelledContext(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orc.ProcessClaims(ctx, claimsN(3))
	assert.ErrorIs(t, err, context.Canceled)
}

const sampleDoc = "The Eiffel Tower was completed in 1889 for the World's Fair. " +
	"Researchers found that the vaccine reduced infections by 90 percent."

func TestAuditText_ReplayWindow(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orc.now = func() time.Time { return now }

	first, err := orc.AuditText(context.Background(), sampleDoc, "doc.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Signature)
	assert.Equal(t, "doc.txt", first.Input)

	now = now.Add(4 * time.Minute)
	_, err = orc.AuditText(context.Background(), sampleDoc, "doc.txt")
	require.ErrorIs(t, err, ErrReplay)
	assert.Contains(t, err.Error(), first.Signature)

	now = now.Add(time.Minute)
	_, err = orc.AuditText(context.Background(), sampleDoc, "doc.txt")
	assert.NoError(t, err)
}

func TestOrchestrator_ResetDuringAudits(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			report, err := orc.AuditText(context.Background(), fmt.Sprintf("%s Revision %d.", sampleDoc, i), "")
			if assert.NoError(t, err) {
				assert.NotEmpty(t, report.SessionID)
			}
		}()
		go func() {
			defer wg.Done()
			orc.Reset()
			assert.NotEmpty(t, orc.SessionID())
		}()
	}
	wg.Wait()
}

func TestAuditText_ResetClearsReplayAndBudget(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)
	session := orc.SessionID()

	_, err := orc.AuditText(context.Background(), sampleDoc, "")
	require.NoError(t, err)
	require.Positive(t, orc.Budget().Used())

	orc.Reset()
	assert.Equal(t, 0, orc.Budget().Used())
	assert.NotEqual(t, session, orc.SessionID())

	_, err = orc.AuditText(context.Background(), sampleDoc, "")
	assert.NoError(t, err)
}

func TestAuditText_Empty(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)

	_, err := orc.AuditText(context.Background(), "   \n", "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = orc.AuditText(context.Background(), "<html><script>var x = 1;</script></html>", "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAuditInput_FileAndStdin(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)

	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	report, err := orc.AuditInput(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, report.Input)
	assert.Len(t, report.Claims, 2)

	orc.stdin = strings.NewReader("The Great Wall of China is visible across 21,000 kilometres of terrain.")
	report, err = orc.AuditInput(context.Background(), "-")
	require.NoError(t, err)
	assert.Equal(t, "-", report.Input)
	assert.Len(t, report.Claims, 1)

	_, err = orc.AuditInput(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestAuditInput_URLWithReferences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `<html><body>
<p>The Eiffel Tower was completed in 1889 for the World's Fair.</p>
<a href="https://www.reuters.com/world/tower">Reuters</a>
<a href="https://reddit.com/r/paris">thread</a>
<a href="/local">local</a>
</body></html>`)
	}))
	defer server.Close()

	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)
	report, err := orc.AuditInput(context.Background(), server.URL)
	require.NoError(t, err)

	require.Len(t, report.Claims, 1)
	require.Len(t, report.References, 2)
	assert.Equal(t, 0.95, report.References[0].CredibilityScore)
	assert.Equal(t, 0.3, report.References[1].CredibilityScore)
}

func TestSimulate_Mock(t *testing.T) {
	fake := &fakeOracle{}
	orc := NewOrchestrator(testConfig(), fake, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds1")
	require.NoError(t, err)

	report, err := orc.Simulate(context.Background(), sc, true)
	require.NoError(t, err)

	assert.Equal(t, model.ModeSimulation, report.Mode)
	assert.True(t, report.Mock)
	assert.Equal(t, model.PersonaTrustedSystem, report.Persona)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "sim-1", res.ClaimID)
	assert.Equal(t, model.VerdictTrue, res.Verdict)
	assert.Equal(t, 95, res.Confidence)
	assert.Equal(t, model.VerificationSignals{SourceCredibility: 0.95, ConsensusStrength: 0.9, LogicalConsistency: 0.98}, res.Signals)
	assert.Empty(t, res.AuditLog)
	assert.True(t, rules.VerifyIntegrity(res))

	assert.Equal(t, "Security", report.Claims[0].Category)
	assert.Equal(t, sc.Intent, report.Claims[0].Text)
	require.NotNil(t, report.Scenario)
	assert.Equal(t, "ds1", report.Scenario.ID)
	assert.Equal(t, 1, report.Scenario.Summary.RequestCount)

	assert.Equal(t, 0, orc.Budget().Used())
	assert.Equal(t, 0, fake.classifyRuns)
}

func TestSimulate_MockWithoutResponse(t *testing.T) {
	orc := NewOrchestrator(testConfig(), &fakeOracle{}, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds1")
	require.NoError(t, err)
	sc.MockResponse = nil

	_, err = orc.Simulate(context.Background(), sc, true)
	assert.Error(t, err)
}

func TestSimulate_Live(t *testing.T) {
	fake := &fakeOracle{class: oracle.Classification{
		Verdict:     "Malicious",
		Confidence:  0.92,
		Persona:     string(model.PersonaAutomatedBot),
		Explanation: "token replayed across sessions",
	}}
	orc := NewOrchestrator(testConfig(), fake, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds3")
	require.NoError(t, err)

	report, err := orc.Simulate(context.Background(), sc, false)
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, "sim-0", res.ClaimID)
	assert.Equal(t, model.VerdictFalse, res.Verdict)
	assert.Equal(t, 92, res.Confidence)
	assert.Equal(t, model.VerificationSignals{SourceCredibility: 0.8, ConsensusStrength: 0.7, LogicalConsistency: 0.9}, res.Signals)
	assert.Equal(t, "Forensic Audit", report.Claims[0].Category)
	assert.Equal(t, model.PersonaAutomatedBot, report.Persona)
	assert.False(t, report.Mock)
	assert.Equal(t, 1, orc.Budget().Used())
	assert.Equal(t, 1, fake.classifyRuns)
}

func TestSimulate_LiveUnknownPersonaKeptVerbatim(t *testing.T) {
	fake := &fakeOracle{class: oracle.Classification{Verdict: "suspicious", Confidence: 70, Persona: "Credential Stuffer"}}
	orc := NewOrchestrator(testConfig(), fake, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds2")
	require.NoError(t, err)

	report, err := orc.Simulate(context.Background(), sc, false)
	require.NoError(t, err)

	assert.Equal(t, model.Persona("Credential Stuffer"), report.Persona)
	assert.Equal(t, model.VerdictLikelyTrue, report.Results[0].Verdict)
	assert.Equal(t, 70, report.Results[0].Confidence)
}

func TestSimulate_LiveBudgetExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxOracleCalls = 1
	fake := &fakeOracle{class: oracle.Classification{Verdict: "Legitimate", Confidence: 0.9}}
	orc := NewOrchestrator(cfg, fake, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds1")
	require.NoError(t, err)

	_, err = orc.Simulate(context.Background(), sc, false)
	require.NoError(t, err)

	report, err := orc.Simulate(context.Background(), sc, false)
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, model.VerdictUnverified, res.Verdict)
	assert.Equal(t, 0, res.Confidence)
	assert.Equal(t, BudgetExceededExplanation, res.Explanation)
	assert.Equal(t, 1, fake.classifyRuns)
}

func TestSimulate_ClassifierError(t *testing.T) {
	fake := &fakeOracle{classErr: errors.New("quota")}
	orc := NewOrchestrator(testConfig(), fake, nil)
	sc, err := scenario.Find(scenario.BuiltIn(), "ds1")
	require.NoError(t, err)

	_, err = orc.Simulate(context.Background(), sc, false)
	assert.ErrorContains(t, err, "quota")
}

func TestSimulate_OfflineOracle(t *testing.T) {
	orc := NewOrchestrator(testConfig(), oracle.NewOffline(), nil)

	for _, sc := range scenario.BuiltIn() {
		report, err := orc.Simulate(context.Background(), sc, false)
		require.NoError(t, err, sc.ID)
		assert.NotEmpty(t, report.Persona, sc.ID)
		assert.True(t, report.Results[0].Verdict.Valid(), sc.ID)
	}
}
