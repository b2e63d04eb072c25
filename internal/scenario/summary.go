package scenario

import (
	"strings"

	"github.com/ppiankov/proofpilot/internal/model"
)

// ForensicsThreshold is the priority score at which a session warrants a full
// forensic classification
const ForensicsThreshold = 3

// Summarize reduces a request log to the numeric digest sent to the classifier
func Summarize(requests []Request) model.LogSummary {
	summary := model.LogSummary{RequestCount: len(requests)}
	if len(requests) == 0 {
		return summary
	}

	endpoints := make(map[string]struct{})
	tokens := make(map[string]struct{})
	agents := make(map[string]struct{})
	withToken := 0
	first, last := requests[0].Timestamp, requests[0].Timestamp

	for _, r := range requests {
		endpoints[r.Endpoint] = struct{}{}

		if r.StatusCode == 401 || r.StatusCode == 403 {
			summary.AuthFailures++
		}

		if token, ok := r.Header("Authorization"); ok && token != "" {
			tokens[token] = struct{}{}
			withToken++
		}

		// A missing User-Agent counts as its own distinct value
		ua, _ := r.Header("User-Agent")
		agents[ua] = struct{}{}

		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}

	summary.UniqueEndpoints = len(endpoints)
	summary.TokenReuse = len(tokens) < withToken
	summary.UAEntropy = len(agents)
	if len(requests) > 1 {
		summary.TimeSpanSec = last.Sub(first).Seconds()
	}
	return summary
}

// PriorityScore weighs a log summary: repeated auth failures, token reuse and
// broad endpoint coverage each add to the score.
func PriorityScore(s model.LogSummary) int {
	score := 0
	if s.AuthFailures > 2 {
		score += 4
	}
	if s.TokenReuse {
		score += 5
	}
	if s.UniqueEndpoints > 5 {
		score += 2
	}
	return score
}

// VerdictFor maps a security classification onto the claim verdict scale.
// Legitimate and unrecognized labels map to TRUE.
func VerdictFor(classification string) model.Verdict {
	switch strings.ToLower(strings.TrimSpace(classification)) {
	case "malicious":
		return model.VerdictFalse
	case "suspicious":
		return model.VerdictLikelyTrue
	default:
		return model.VerdictTrue
	}
}
