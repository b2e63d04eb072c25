package model

// Claim represents an atomic statement submitted for verification
type Claim struct {
	ID        string `json:"id" yaml:"id"`                                   // Unique within a session
	Text      string `json:"text" yaml:"text"`                               // Verbatim statement
	Category  string `json:"category" yaml:"category"`                       // Free-form domain label (e.g., "Medicine")
	Heuristic string `json:"heuristic,omitempty" yaml:"heuristic,omitempty"` // Which local extraction rule matched, if any
}

// Correction is a cross-claim consistency finding reported by the oracle
type Correction struct {
	ClaimID          string  `json:"id"`
	Inconsistent     bool    `json:"inconsistent"`
	SuggestedVerdict Verdict `json:"suggestedVerdict,omitempty"`
	Reason           string  `json:"reason,omitempty"`
}
