package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/proofpilot/internal/credibility"
	"github.com/ppiankov/proofpilot/internal/model"
)

// DefaultOllamaBaseURL is Ollama's OpenAI-compatible endpoint
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

const (
	defaultExplanation        = "Verification grounded in source indices."
	defaultSourceTitle        = "External Source"
	defaultConsensusStrength  = 0.8
	defaultLogicalConsistency = 0.9
)

// OpenAIOracle talks to any OpenAI-compatible chat completions endpoint in JSON mode
type OpenAIOracle struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
	timeout   time.Duration
	scorer    *credibility.Scorer
	logger    *slog.Logger
}

// NewOpenAIOracle creates a new OpenAI-backed oracle
func NewOpenAIOracle(cfg model.OracleConfig, scorer *credibility.Scorer, httpClient *http.Client, logger *slog.Logger) (*OpenAIOracle, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if scorer == nil {
		scorer = credibility.NewScorer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIOracle{
		client:    openai.NewClientWithConfig(clientConfig),
		name:      "openai",
		model:     modelName,
		maxTokens: maxTokens,
		timeout:   timeout,
		scorer:    scorer,
		logger:    logger,
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string {
	return o.name
}

// IsAvailable checks that the endpoint accepts our credentials
func (o *OpenAIOracle) IsAvailable(ctx context.Context) bool {
	if _, err := o.client.ListModels(ctx); err != nil {
		o.logger.Warn("oracle availability check failed", "oracle", o.name, "error", err)
		return false
	}
	return true
}

// ExtractClaims asks the model to split text into claims. Missing or
// duplicate IDs are replaced with positional ones.
func (o *OpenAIOracle) ExtractClaims(ctx context.Context, text string) ([]model.Claim, error) {
	var resp struct {
		Claims []model.Claim `json:"claims"`
	}
	if err := o.complete(ctx, extractSystemPrompt, buildExtractPrompt(text), &resp); err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	claims := make([]model.Claim, 0, len(resp.Claims))
	seen := make(map[string]bool)
	for _, c := range resp.Claims {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		if c.ID == "" || seen[c.ID] {
			c.ID = fmt.Sprintf("c%d", len(claims)+1)
		}
		if c.Category == "" {
			c.Category = "General"
		}
		seen[c.ID] = true
		claims = append(claims, c)
	}
	return claims, nil
}

type verifyResponse struct {
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
	Sources     []struct {
		Title string `json:"title"`
		URI   string `json:"uri"`
	} `json:"sources"`
	ConsensusStrength  *float64 `json:"consensus_strength"`
	LogicalConsistency *float64 `json:"logical_consistency"`
}

// Verify asks the model for a verdict and rates the sources it cites
func (o *OpenAIOracle) Verify(ctx context.Context, claim model.Claim) (model.VerificationResult, error) {
	var resp verifyResponse
	if err := o.complete(ctx, verifySystemPrompt, buildVerifyPrompt(claim), &resp); err != nil {
		return model.VerificationResult{}, fmt.Errorf("verify claim %s: %w", claim.ID, err)
	}

	verdict, ok := model.ParseVerdict(resp.Verdict)
	if !ok {
		verdict = model.VerdictUnverified
	}

	explanation := strings.TrimSpace(resp.Explanation)
	if explanation == "" {
		explanation = defaultExplanation
	}

	var sources []model.Source
	for _, s := range resp.Sources {
		uri := strings.TrimSpace(s.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = defaultSourceTitle
		}
		sources = append(sources, model.Source{Title: title, URI: uri})
	}
	avgCredibility := o.scorer.Rate(sources)

	signals := model.VerificationSignals{
		SourceCredibility:  avgCredibility,
		ConsensusStrength:  defaultConsensusStrength,
		LogicalConsistency: defaultLogicalConsistency,
	}
	if resp.ConsensusStrength != nil {
		signals.ConsensusStrength = *resp.ConsensusStrength
	}
	if resp.LogicalConsistency != nil {
		signals.LogicalConsistency = *resp.LogicalConsistency
	}

	return model.VerificationResult{
		ClaimID:     claim.ID,
		Verdict:     verdict,
		Confidence:  ScaleConfidence(resp.Confidence),
		Explanation: explanation,
		Sources:     sources,
		Signals:     signals.Clamped(),
		RawVerdict:  verdict,
	}, nil
}

// CheckConsistency asks the model which verified claims contradict each other
func (o *OpenAIOracle) CheckConsistency(ctx context.Context, claims []model.Claim, results []model.VerificationResult) ([]model.Correction, error) {
	prompt, err := buildConsistencyPrompt(claims, results)
	if err != nil {
		return nil, fmt.Errorf("build consistency prompt: %w", err)
	}

	content, err := o.chat(ctx, consistencySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("check consistency: %w", err)
	}

	corrections, err := decodeCorrections(content)
	if err != nil {
		return nil, fmt.Errorf("check consistency: %w", err)
	}
	return corrections, nil
}

// AnalyzeRisk asks the model for a narrative risk profile
func (o *OpenAIOracle) AnalyzeRisk(ctx context.Context, persona model.Persona, stats model.VerdictStats) (model.RiskAnalysis, error) {
	prompt, err := buildRiskPrompt(persona, stats)
	if err != nil {
		return model.RiskAnalysis{}, fmt.Errorf("build risk prompt: %w", err)
	}

	var risk model.RiskAnalysis
	if err := o.complete(ctx, riskSystemPrompt, prompt, &risk); err != nil {
		return model.RiskAnalysis{}, fmt.Errorf("analyze risk: %w", err)
	}
	return risk, nil
}

// ClassifySession asks the model to classify a summarized request log
func (o *OpenAIOracle) ClassifySession(ctx context.Context, summary model.LogSummary, intent string) (Classification, error) {
	prompt, err := buildSessionPrompt(summary, intent)
	if err != nil {
		return Classification{}, fmt.Errorf("build session prompt: %w", err)
	}

	var c Classification
	if err := o.complete(ctx, securitySystemPrompt, prompt, &c); err != nil {
		return Classification{}, fmt.Errorf("classify session: %w", err)
	}
	return c, nil
}

// complete runs one JSON-mode chat turn and decodes the reply into out
func (o *OpenAIOracle) complete(ctx context.Context, system, user string, out any) error {
	content, err := o.chat(ctx, system, user)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (o *OpenAIOracle) chat(ctx context.Context, system, user string) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   o.maxTokens,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", o.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", o.name)
	}

	o.logger.Debug("oracle call",
		"oracle", o.name,
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start))

	return stripFences(resp.Choices[0].Message.Content), nil
}

// stripFences removes a markdown code fence some models wrap JSON in
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// decodeCorrections accepts {"corrections": [...]} or a bare array
func decodeCorrections(content string) ([]model.Correction, error) {
	if strings.HasPrefix(content, "[") {
		var list []model.Correction
		if err := json.Unmarshal([]byte(content), &list); err != nil {
			return nil, fmt.Errorf("decode corrections: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Corrections *[]model.Correction `json:"corrections"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("decode corrections: %w", err)
	}
	if wrapped.Corrections == nil {
		return nil, errors.New("decode corrections: missing corrections field")
	}
	return *wrapped.Corrections, nil
}

// ScaleConfidence converts a model-reported confidence to a 0-100 integer.
// Values in (0,1] are fractions; anything larger is already a percentage.
func ScaleConfidence(c float64) int {
	if math.IsNaN(c) || c <= 0 {
		return 0
	}
	if c <= 1 {
		c *= 100
	}
	return int(math.Round(math.Min(c, 100)))
}
