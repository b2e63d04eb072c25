// Package pipeline sequences oracle calls through the reconciliation core:
// budget and replay guards, the rule engine, the consistency reconciler and
// the persona classifier.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/proofpilot/internal/cache"
	"github.com/ppiankov/proofpilot/internal/consistency"
	"github.com/ppiankov/proofpilot/internal/credibility"
	"github.com/ppiankov/proofpilot/internal/extract"
	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/oracle"
	"github.com/ppiankov/proofpilot/internal/persona"
	"github.com/ppiankov/proofpilot/internal/rules"
	"github.com/ppiankov/proofpilot/internal/session"
	"github.com/ppiankov/proofpilot/internal/worker"
)

// BudgetExceededExplanation is attached to claims verified after the session budget ran out
const BudgetExceededExplanation = "AI budget exceeded for this session. Use localized rules or upgrade for more forensic detail."

var (
	// ErrReplay is returned when an identical submission arrives inside the replay window
	ErrReplay = errors.New("replay detected")

	// ErrEmptyInput is returned when a document has no text to audit
	ErrEmptyInput = errors.New("no content to audit")
)

// Orchestrator owns the session guards and runs audits against one oracle.
// Batch audits share a single Orchestrator, and therefore one budget and one
// replay history.
type Orchestrator struct {
	oracle     oracle.Oracle
	engine     *rules.Engine
	reconciler *consistency.Reconciler
	budget     *session.BudgetGuard
	replay     *session.ReplayGuard
	scorer     *credibility.Scorer
	fetcher    *Fetcher
	references *extract.ReferenceExtractor
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	workers    int

	mu          sync.RWMutex // guards sessionID
	sessionID   string
	fingerprint string
	logger      *slog.Logger
	now         func() time.Time
	stdin       io.Reader
}

// NewOrchestrator creates an orchestrator for one session
func NewOrchestrator(cfg *model.Config, orc oracle.Oracle, logger *slog.Logger) *Orchestrator {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if orc == nil {
		orc = oracle.NewOffline()
	}
	if logger == nil {
		logger = slog.Default()
	}

	verificationCache := cache.New(cfg.Cache)
	cacheTTL := cfg.Cache.DiskTTL
	if cfg.Cache.Dir == "" {
		cacheTTL = cfg.Cache.MemoryTTL
	}

	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	return &Orchestrator{
		oracle:      orc,
		engine:      rules.NewEngine(),
		reconciler:  consistency.NewReconciler(orc),
		budget:      session.NewBudgetGuard(cfg.Session.MaxOracleCalls),
		replay:      session.NewReplayGuard(cfg.Session.ReplayWindow, cfg.Session.ReplayHistory),
		scorer:      credibility.NewScorer(&cfg.Credibility),
		fetcher:     NewFetcher(cfg.HTTP, limiter, verificationCache, cacheTTL, logger),
		references:  extract.NewReferenceExtractor(),
		cache:       verificationCache,
		cacheTTL:    cacheTTL,
		limiter:     limiter,
		workers:     max(cfg.Concurrency.Workers, 1),
		sessionID:   uuid.NewString(),
		fingerprint: session.EnvironmentFingerprint(),
		logger:      logger.With("component", "pipeline"),
		now:         time.Now,
		stdin:       os.Stdin,
	}
}

// SessionID identifies the session whose guards gate this orchestrator
func (o *Orchestrator) SessionID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sessionID
}

// Budget exposes the session's oracle call budget
func (o *Orchestrator) Budget() *session.BudgetGuard {
	return o.budget
}

// OracleName returns the configured oracle's name
func (o *Orchestrator) OracleName() string {
	return o.oracle.Name()
}

// Reset starts a new session: budget, replay history and session ID
func (o *Orchestrator) Reset() {
	o.budget.Reset()
	o.replay.Reset()
	id := uuid.NewString()

	o.mu.Lock()
	o.sessionID = id
	o.mu.Unlock()

	o.logger.Debug("session reset", "session", id)
}

// AuditInput audits a file path, an http(s) URL, or "-" for stdin.
// It implements worker.Auditor.
func (o *Orchestrator) AuditInput(ctx context.Context, input string) (*model.AuditReport, error) {
	var (
		content    string
		references []model.Source
	)

	switch {
	case input == "-":
		data, err := io.ReadAll(o.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)

	case isURL(input):
		fetched, err := o.fetcher.FetchWithRetry(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", input, err)
		}
		content = fetched.Content
		if fetched.IsHTML() {
			refs, err := o.references.Extract(fetched.Content, fetched.FinalURL)
			if err != nil {
				o.logger.Warn("extract references failed", "url", input, "error", err)
			}
			references = o.rateReferences(refs)
		}

	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input, err)
		}
		content = string(data)
	}

	report, err := o.AuditText(ctx, content, input)
	if err != nil {
		return nil, err
	}
	report.References = references
	return report, nil
}

// AuditText audits one document. Identical submissions from the same
// environment inside the replay window fail with ErrReplay.
func (o *Orchestrator) AuditText(ctx context.Context, text string, input string) (*model.AuditReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	signature := session.Signature(o.fingerprint, text)
	if o.replay.CheckAndRecord(signature, o.now()) {
		o.logger.Warn("replay rejected", "signature", signature, "input", input)
		return nil, fmt.Errorf("%w: signature %s", ErrReplay, signature)
	}

	plain, err := extract.PlainText(text)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if plain == "" {
		return nil, ErrEmptyInput
	}

	claims, err := o.oracle.ExtractClaims(ctx, plain)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	o.logger.Debug("claims extracted", "input", input, "claims", len(claims))

	report, err := o.ProcessClaims(ctx, claims)
	if err != nil {
		return nil, err
	}
	report.Signature = signature
	report.Input = input
	return report, nil
}

type claimPlan struct {
	claim    model.Claim
	key      string
	cached   *model.VerificationResult
	overdraw bool // budget exhausted before this claim
}

type claimOutcome struct {
	result *model.VerificationResult
	err    error
}

// ProcessClaims verifies claims and runs the reconciliation core over them.
// Per-claim oracle failures are logged and listed in Unverified; only
// context cancellation fails the call.
func (o *Orchestrator) ProcessClaims(ctx context.Context, claims []model.Claim) (*model.AuditReport, error) {
	name := o.oracle.Name()

	// Budget is decided in claim order before any job starts
	plans := make([]claimPlan, len(claims))
	for i, claim := range claims {
		plan := claimPlan{claim: claim, key: cache.VerificationKey(name, claim)}
		var cached model.VerificationResult
		switch {
		case cache.GetJSON(o.cache, plan.key, &cached):
			plan.cached = &cached
		case !o.budget.TryConsume():
			plan.overdraw = true
		}
		plans[i] = plan
	}

	outcomes := worker.Map(ctx, o.workers, plans, o.verify)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]model.VerificationResult, 0, len(claims))
	var unverified []string
	for i, out := range outcomes {
		if out.result == nil {
			unverified = append(unverified, claims[i].ID)
			continue
		}
		results = append(results, *out.result)
	}

	results, corrections, err := o.reconciler.Reconcile(ctx, claims, results)
	if err != nil {
		o.logger.Warn("consistency check failed", "error", err)
	} else if len(corrections) > 0 {
		o.logger.Info("consistency corrections applied", "corrections", len(corrections))
	}

	p, stats := persona.ClassifyResults(results)
	report := o.newReport(model.ModeDocument)
	report.Persona = p
	report.Stats = stats
	report.Claims = claims
	report.Results = results
	report.Unverified = unverified

	if len(results) > 0 {
		o.attachRisk(ctx, report)
	}

	o.logger.Info("audit complete",
		"report", report.ID,
		"claims", len(claims),
		"unverified", len(unverified),
		"persona", p,
		"budget_used", o.budget.Used(),
	)
	return report, nil
}

// verify produces the reconciled result for one planned claim
func (o *Orchestrator) verify(ctx context.Context, plan claimPlan) claimOutcome {
	var raw model.VerificationResult

	switch {
	case plan.cached != nil:
		raw = plan.cached.Clone()
		raw.ClaimID = plan.claim.ID

	case plan.overdraw:
		raw = budgetFallback(plan.claim.ID)

	default:
		if err := o.limiter.Wait(ctx, o.oracle.Name()); err != nil {
			return claimOutcome{err: err}
		}
		var err error
		raw, err = o.oracle.Verify(ctx, plan.claim)
		if err != nil {
			o.logger.Warn("verification failed", "claim", plan.claim.ID, "error", err)
			return claimOutcome{err: err}
		}
		if err := cache.SetJSON(o.cache, plan.key, raw, o.cacheTTL); err != nil {
			o.logger.Warn("cache verification failed", "claim", plan.claim.ID, "error", err)
		}
	}

	res, adjustments := o.engine.Apply(plan.claim, raw)
	if len(adjustments) > 0 {
		o.logger.Debug("rules adjusted verdict",
			"claim", plan.claim.ID,
			"from", raw.Verdict,
			"to", res.Verdict,
			"adjustments", len(adjustments),
		)
	}
	return claimOutcome{result: &res}
}

func (o *Orchestrator) attachRisk(ctx context.Context, report *model.AuditReport) {
	risk, err := o.oracle.AnalyzeRisk(ctx, report.Persona, report.Stats)
	if err != nil {
		o.logger.Warn("risk analysis failed", "report", report.ID, "error", err)
		return
	}
	report.Risk = &risk
}

func (o *Orchestrator) newReport(mode model.AuditMode) *model.AuditReport {
	return &model.AuditReport{
		ID:        "PP-AUDIT-" + strings.ToUpper(uuid.NewString()[:8]),
		SessionID: o.SessionID(),
		Mode:      mode,
		Oracle:    o.oracle.Name(),
		CreatedAt: o.now().UTC(),
	}
}

func (o *Orchestrator) rateReferences(refs []model.Source) []model.Source {
	for i := range refs {
		rating := o.scorer.Score(refs[i].URI)
		refs[i].CredibilityScore = rating.Score
		refs[i].CredibilityReason = rating.Reason
	}
	return refs
}

// budgetFallback is the result recorded for a claim once the session budget is spent
func budgetFallback(claimID string) model.VerificationResult {
	return model.VerificationResult{
		ClaimID:     claimID,
		Verdict:     model.VerdictUnverified,
		Confidence:  0,
		Explanation: BudgetExceededExplanation,
		Sources:     []model.Source{},
		AuditLog:    []model.Adjustment{},
		RawVerdict:  model.VerdictUnverified,
	}
}

func isURL(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
