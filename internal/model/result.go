package model

import "math"

// VerificationSignals are independent [0,1] sub-scores behind a verdict.
// They are not summed into confidence; each rule adjusts them separately.
type VerificationSignals struct {
	SourceCredibility  float64 `json:"sourceCredibility"`
	ConsensusStrength  float64 `json:"consensusStrength"`
	LogicalConsistency float64 `json:"logicalConsistency"`
}

// Clamped returns the signals with every component limited to [0,1]
func (s VerificationSignals) Clamped() VerificationSignals {
	return VerificationSignals{
		SourceCredibility:  clamp01(s.SourceCredibility),
		ConsensusStrength:  clamp01(s.ConsensusStrength),
		LogicalConsistency: clamp01(s.LogicalConsistency),
	}
}

// Source is a piece of grounding evidence returned by the oracle
type Source struct {
	Title             string  `json:"title"`
	URI               string  `json:"uri"`
	CredibilityScore  float64 `json:"credibilityScore"`
	CredibilityReason string  `json:"credibilityReason"`
}

// Adjustment records one deterministic change made by a rule
type Adjustment struct {
	RuleName           string       `json:"ruleName"`
	Priority           RulePriority `json:"priority"`
	PreviousVerdict    Verdict      `json:"previousVerdict"`
	NewVerdict         Verdict      `json:"newVerdict"`
	PreviousConfidence int          `json:"previousConfidence"`
	NewConfidence      int          `json:"newConfidence"`
	Note               string       `json:"note"`
}

// VerificationResult is the verdict for a single claim
type VerificationResult struct {
	ClaimID         string              `json:"claimId"`
	Verdict         Verdict             `json:"verdict"`
	Confidence      int                 `json:"confidence"` // 0-100
	Explanation     string              `json:"explanation"`
	Sources         []Source            `json:"sources"`
	Signals         VerificationSignals `json:"signals"`
	ConsistencyFlag bool                `json:"consistencyFlag,omitempty"`
	OriginalVerdict Verdict             `json:"originalVerdict,omitempty"` // Verdict before a consistency correction
	CorrectionNote  string              `json:"correctionNote,omitempty"`
	AuditLog        []Adjustment        `json:"auditLog"`
	RawVerdict      Verdict             `json:"rawVerdict,omitempty"` // Oracle verdict before rules ran
	IntegrityHash   string              `json:"integrityHash,omitempty"`
}

// Clone returns a deep copy so callers can transform results without aliasing slices
func (r VerificationResult) Clone() VerificationResult {
	out := r
	if r.Sources != nil {
		out.Sources = append([]Source(nil), r.Sources...)
	}
	if r.AuditLog != nil {
		out.AuditLog = append([]Adjustment(nil), r.AuditLog...)
	}
	return out
}

// ClampConfidence limits a confidence value to [0,100]
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
