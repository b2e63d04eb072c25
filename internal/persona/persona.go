// Package persona classifies an audited document from its verdict distribution.
package persona

import (
	"math"

	"github.com/ppiankov/proofpilot/internal/model"
)

// Summarize aggregates verdict counts, mean confidence and contradictions
func Summarize(results []model.VerificationResult) model.VerdictStats {
	stats := model.VerdictStats{Counts: make(map[model.Verdict]int, len(model.AllVerdicts))}
	for _, v := range model.AllVerdicts {
		stats.Counts[v] = 0
	}

	sum := 0
	for _, res := range results {
		stats.Counts[res.Verdict]++
		sum += res.Confidence
		if res.ConsistencyFlag {
			stats.Contradictions++
		}
	}
	stats.Total = len(results)

	if stats.Total > 0 {
		stats.AverageConfidence = int(math.Round(float64(sum) / float64(stats.Total)))
	}
	return stats
}

// Classify picks a document persona. Checks run in priority order:
// contradictions, then a FALSE share above 30%, then a TRUE share above 70%.
func Classify(stats model.VerdictStats) model.Persona {
	if stats.Contradictions > 0 {
		return model.PersonaContradictory
	}
	if stats.Total <= 0 {
		return model.PersonaBalancedInquiry
	}

	// integer comparisons keep the 30% / 70% boundaries exact
	if stats.Count(model.VerdictFalse)*10 > stats.Total*3 {
		return model.PersonaSpeculativeRisk
	}
	if stats.Count(model.VerdictTrue)*10 > stats.Total*7 {
		return model.PersonaFactualCore
	}
	return model.PersonaBalancedInquiry
}

// ClassifyResults is Summarize followed by Classify
func ClassifyResults(results []model.VerificationResult) (model.Persona, model.VerdictStats) {
	stats := Summarize(results)
	return Classify(stats), stats
}
