package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/proofpilot/internal/cache"
	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/util"
	"github.com/ppiankov/proofpilot/internal/worker"
)

const maxFetchAttempts = 3

// ErrRobotsDisallowed is returned when robots.txt forbids fetching a URL
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// fetchSleepFunc is swapped out in tests
var fetchSleepFunc = time.Sleep

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher retrieves documents for URL inputs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is not respected
	limiter    *worker.Limiter     // nil disables throttling
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(cfg model.HTTPConfig, limiter *worker.Limiter, c cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *Fetcher {
	client := util.NewHTTPClient(cfg)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		limiter:    limiter,
		cache:      c,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.UserAgent, client, cfg.Timeout)
	}
	return f
}

// FetchResult contains the fetched document and metadata
type FetchResult struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	StatusCode  int    `json:"status_code"`
	FinalURL    string `json:"final_url"`
	FromCache   bool   `json:"-"`
}

// IsHTML reports whether the response should be parsed as markup
func (r *FetchResult) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return strings.Contains(ct, "html") || (ct == "" && strings.Contains(strings.ToLower(r.Content), "<html"))
}

// FetchWithRetry serves from cache when possible, otherwise fetches with up
// to three attempts and exponential backoff on transient failures.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.DocumentKey(rawURL)
	var cached FetchResult
	if cache.GetJSON(f.cache, key, &cached) {
		cached.FromCache = true
		return &cached, nil
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			if err := cache.SetJSON(f.cache, key, result, f.cacheTTL); err != nil {
				f.logger.Warn("cache document failed", "url", rawURL, "error", err)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxFetchAttempts {
			break
		}

		f.logger.Debug("fetch retry", "url", rawURL, "attempt", attempt, "backoff", backoff, "error", err)
		fetchSleepFunc(backoff)
		backoff *= 2

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// Fetch performs a single GET
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
		}
		if delay > 0 && f.limiter != nil {
			if parsed, err := url.Parse(rawURL); err == nil {
				f.limiter.SetRate(parsed.Host, 1/delay.Seconds(), 1)
				f.logger.Debug("robots.txt crawl delay", "host", parsed.Host, "delay", delay)
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		Content:     string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// isRetryableFetchError reports whether a fetch failure is worth another attempt:
// 429 and 5xx responses, and transport errors.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}

	return strings.HasPrefix(err.Error(), "fetch:")
}
