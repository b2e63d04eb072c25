// Package consistency layers cross-claim contradiction corrections on top of
// rule-engine results.
package consistency

import (
	"context"
	"fmt"

	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/rules"
)

const (
	confidencePenalty = 10
	confidenceFloor   = 50
)

// Checker finds mutually contradictory claims. The oracle implements it.
type Checker interface {
	CheckConsistency(ctx context.Context, claims []model.Claim, results []model.VerificationResult) ([]model.Correction, error)
}

// Reconciler asks a Checker for corrections and applies them
type Reconciler struct {
	checker Checker
}

// NewReconciler creates a reconciler backed by checker
func NewReconciler(checker Checker) *Reconciler {
	return &Reconciler{checker: checker}
}

// Reconcile returns results with contradiction corrections applied, in the
// same order as the input. When the checker fails the input results are
// returned unchanged alongside the error.
func (r *Reconciler) Reconcile(ctx context.Context, claims []model.Claim, results []model.VerificationResult) ([]model.VerificationResult, []model.Correction, error) {
	if len(results) == 0 || r.checker == nil {
		return results, nil, nil
	}

	corrections, err := r.checker.CheckConsistency(ctx, claims, results)
	if err != nil {
		return results, nil, fmt.Errorf("check consistency: %w", err)
	}

	corrected, applied := Apply(results, corrections)
	return corrected, applied, nil
}

// Apply layers corrections onto results and returns the new results plus the
// corrections that took effect. At most one correction applies per claim;
// unknown claim IDs and consistent findings are ignored. Inputs are not modified.
func Apply(results []model.VerificationResult, corrections []model.Correction) ([]model.VerificationResult, []model.Correction) {
	out := make([]model.VerificationResult, len(results))
	index := make(map[string]int, len(results))
	for i, res := range results {
		out[i] = res.Clone()
		index[res.ClaimID] = i
	}

	var applied []model.Correction
	corrected := make(map[string]bool)
	for _, corr := range corrections {
		if !corr.Inconsistent || corrected[corr.ClaimID] {
			continue
		}
		i, ok := index[corr.ClaimID]
		if !ok {
			continue
		}

		out[i] = correct(out[i], corr)
		corrected[corr.ClaimID] = true
		applied = append(applied, corr)
	}

	return out, applied
}

// correct applies a single correction to one result
func correct(res model.VerificationResult, corr model.Correction) model.VerificationResult {
	res.OriginalVerdict = res.Verdict

	if v, ok := model.ParseVerdict(string(corr.SuggestedVerdict)); ok {
		// A FALSE verdict is never turned back into an endorsement
		if !(res.Verdict == model.VerdictFalse && v.Affirmative()) {
			res.Verdict = v
		}
	}

	res.ConsistencyFlag = true
	res.CorrectionNote = "Contradiction: " + corr.Reason
	res.Confidence = penalize(res.Confidence)
	res.IntegrityHash = rules.IntegrityHash(res.ClaimID, res.Verdict, res.Confidence)
	return res
}

// penalize lowers confidence by the fixed penalty without crossing the floor
// and without ever raising a value that already sits below it.
func penalize(confidence int) int {
	next := max(confidence-confidencePenalty, confidenceFloor)
	return model.ClampConfidence(min(next, confidence))
}
