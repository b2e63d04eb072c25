// Package oracle adapts external verification services to ProofPilot's
// claim and result model. Oracle output is raw: the reconciliation core
// decides what the user sees.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/proofpilot/internal/credibility"
	"github.com/ppiankov/proofpilot/internal/model"
)

// ErrNoAPIKey is returned when a hosted provider is selected without credentials
var ErrNoAPIKey = errors.New("oracle API key is required")

// Extractor turns free text into atomic claims
type Extractor interface {
	ExtractClaims(ctx context.Context, text string) ([]model.Claim, error)
}

// Verifier produces a raw verification for one claim
type Verifier interface {
	Verify(ctx context.Context, claim model.Claim) (model.VerificationResult, error)
}

// Checker reports claims that contradict each other
type Checker interface {
	CheckConsistency(ctx context.Context, claims []model.Claim, results []model.VerificationResult) ([]model.Correction, error)
}

// RiskAnalyst writes a narrative risk profile for a classified document
type RiskAnalyst interface {
	AnalyzeRisk(ctx context.Context, persona model.Persona, stats model.VerdictStats) (model.RiskAnalysis, error)
}

// SessionClassifier classifies a simulated request log
type SessionClassifier interface {
	ClassifySession(ctx context.Context, summary model.LogSummary, intent string) (Classification, error)
}

// Oracle is the full set of capabilities the orchestrator needs
type Oracle interface {
	Extractor
	Verifier
	Checker
	RiskAnalyst
	SessionClassifier

	// Name identifies the provider in reports, cache keys and rate limits
	Name() string
}

// Classification is a security classifier's view of one session
type Classification struct {
	Verdict     string   `json:"verdict"`    // Legitimate, Suspicious or Malicious
	Confidence  float64  `json:"confidence"` // 0-1 (values above 1 are read as percent)
	Persona     string   `json:"persona"`
	KeySignals  []string `json:"key_signals"`
	Explanation string   `json:"explanation"`
}

// Classification verdict labels
const (
	ClassLegitimate = "Legitimate"
	ClassSuspicious = "Suspicious"
	ClassMalicious  = "Malicious"
)

// NewOracle builds the oracle selected by cfg.Provider
func NewOracle(cfg model.OracleConfig, scorer *credibility.Scorer, client *http.Client, logger *slog.Logger) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "offline", "none":
		return NewOffline(), nil

	case "openai":
		return NewOpenAIOracle(cfg, scorer, client, logger)

	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = DefaultOllamaBaseURL
		}
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		o, err := NewOpenAIOracle(cfg, scorer, client, logger)
		if err != nil {
			return nil, err
		}
		o.name = "ollama"
		return o, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, ollama, offline)", cfg.Provider)
	}
}
