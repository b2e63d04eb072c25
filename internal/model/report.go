package model

import "time"

// AuditMode distinguishes document audits from security simulations
type AuditMode string

const (
	ModeDocument   AuditMode = "document"
	ModeSimulation AuditMode = "simulation"
)

// AuditReport is the complete output of one analysis run
type AuditReport struct {
	ID        string    `json:"id"`                  // Report identifier (PP-AUDIT-...)
	SessionID string    `json:"session_id"`          // Session whose guards gated this run
	Mode      AuditMode `json:"mode"`                // document or simulation
	Mock      bool      `json:"mock,omitempty"`      // Simulation used canned oracle output
	Oracle    string    `json:"oracle"`              // Oracle provider name
	CreatedAt time.Time `json:"created_at"`          // When the analysis completed
	Signature string    `json:"signature,omitempty"` // Submission signature checked by the replay guard
	Input     string    `json:"input,omitempty"`     // File path, URL or "-" the document came from

	Persona Persona      `json:"persona"`
	Stats   VerdictStats `json:"stats"`

	Claims     []Claim              `json:"claims"`
	Results    []VerificationResult `json:"results"`              // Ordered as Claims; absent results are skipped
	Unverified []string             `json:"unverified,omitempty"` // Claim IDs the oracle returned nothing for
	References []Source             `json:"references,omitempty"` // Outbound links of an HTML document, rated

	Risk     *RiskAnalysis `json:"risk_analysis,omitempty"`
	Scenario *ScenarioRun  `json:"scenario,omitempty"`
}

// Result returns the result for a claim ID, if present
func (r *AuditReport) Result(claimID string) (VerificationResult, bool) {
	for _, res := range r.Results {
		if res.ClaimID == claimID {
			return res, true
		}
	}
	return VerificationResult{}, false
}

// VerdictStats aggregates verdicts across a claim set
type VerdictStats struct {
	Counts            map[Verdict]int `json:"counts"`
	Total             int             `json:"total"`
	AverageConfidence int             `json:"average_confidence"` // Rounded mean, 0 when empty
	Contradictions    int             `json:"contradictions"`     // Results carrying a consistency flag
}

// Count returns the number of results with the given verdict
func (s VerdictStats) Count(v Verdict) int {
	return s.Counts[v]
}

// RiskAnalysis is the oracle's narrative summary of the persona and stats
type RiskAnalysis struct {
	Summary          string   `json:"summary"`
	IdentifiedRisks  []string `json:"identifiedRisks"`
	SuggestedActions []string `json:"suggestedActions"`
}

// LogSummary is the token-efficient digest of a simulated request log
type LogSummary struct {
	RequestCount    int     `json:"request_count"`
	UniqueEndpoints int     `json:"unique_endpoints"`
	AuthFailures    int     `json:"auth_failures"`
	TokenReuse      bool    `json:"token_reuse"`
	TimeSpanSec     float64 `json:"time_span_sec"`
	UAEntropy       int     `json:"ua_entropy"`
}

// ScenarioRun records which simulation produced a report
type ScenarioRun struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	ExpectedPersona Persona    `json:"expected_persona,omitempty"`
	Summary         LogSummary `json:"log_summary"`
	PriorityScore   int        `json:"priority_score"`
}
