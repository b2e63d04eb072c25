package credibility

import (
	"net/url"
	"strings"

	"github.com/ppiankov/proofpilot/internal/model"
)

const (
	reasonHighIntegrity = "Verified High-Integrity Domain"
	reasonGovernment    = "Official Government Repository"
	reasonAcademic      = "Academic/Educational Institution"
	reasonInternational = "International Organization"
	reasonSocial        = "User-Generated Content / Social Media"
	reasonNonProfit     = "Non-Profit Organization"
	reasonCommercial    = "Standard Commercial Domain"
	reasonUnverifiable  = "Unverifiable Domain Structure"
)

// Rating is the credibility assigned to a source URL
type Rating struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Scorer rates source URLs against fixed domain tables
type Scorer struct {
	high []string
	low  []string
}

// NewScorer creates a scorer. A nil config uses the built-in domain tables.
func NewScorer(config *model.CredibilityConfig) *Scorer {
	if config == nil {
		config = &model.DefaultConfig().Credibility
	}

	return &Scorer{
		high: normalizeDomains(config.HighDomains),
		low:  normalizeDomains(config.LowDomains),
	}
}

// Score rates a URL. It never fails: malformed input yields a neutral 0.5.
func (s *Scorer) Score(rawURL string) Rating {
	host, ok := hostname(rawURL)
	if !ok {
		return Rating{Score: 0.5, Reason: reasonUnverifiable}
	}

	if matchesAny(host, s.high) {
		return Rating{Score: 0.95, Reason: reasonHighIntegrity}
	}

	switch {
	case strings.HasSuffix(host, ".gov"):
		return Rating{Score: 1.0, Reason: reasonGovernment}
	case strings.HasSuffix(host, ".edu"):
		return Rating{Score: 0.9, Reason: reasonAcademic}
	case strings.HasSuffix(host, ".int"):
		return Rating{Score: 0.95, Reason: reasonInternational}
	}

	if matchesAny(host, s.low) {
		return Rating{Score: 0.3, Reason: reasonSocial}
	}

	if strings.HasSuffix(host, ".org") {
		return Rating{Score: 0.7, Reason: reasonNonProfit}
	}

	return Rating{Score: 0.6, Reason: reasonCommercial}
}

// Rate fills in credibility fields on each source and returns their mean score.
// An empty slice averages to 0.5.
func (s *Scorer) Rate(sources []model.Source) float64 {
	if len(sources) == 0 {
		return 0.5
	}

	total := 0.0
	for i := range sources {
		rating := s.Score(sources[i].URI)
		sources[i].CredibilityScore = rating.Score
		sources[i].CredibilityReason = rating.Reason
		total += rating.Score
	}
	return total / float64(len(sources))
}

// hostname extracts a lowercased host without port or leading "www."
func hostname(rawURL string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " /") {
		return "", false
	}
	return host, true
}

// matchesAny reports an exact or subdomain match (e.g., en.wikipedia.org matches wikipedia.org)
func matchesAny(host string, domains []string) bool {
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}
