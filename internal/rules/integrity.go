package rules

import (
	"fmt"
	"hash/fnv"

	"github.com/ppiankov/proofpilot/internal/model"
)

// IntegrityHash is a deterministic, non-cryptographic digest of a final verdict.
// It detects accidental edits to a rendered result, not deliberate tampering.
func IntegrityHash(claimID string, verdict model.Verdict, confidence int) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s|%d", claimID, verdict, confidence)
	return fmt.Sprintf("%016X", h.Sum64())
}

// VerifyIntegrity reports whether a result's hash matches its current fields
func VerifyIntegrity(res model.VerificationResult) bool {
	return res.IntegrityHash != "" && res.IntegrityHash == IntegrityHash(res.ClaimID, res.Verdict, res.Confidence)
}
