package session

import (
	"sync"
	"time"
)

const (
	// DefaultReplayWindow is how long a submission signature stays "seen"
	DefaultReplayWindow = 5 * time.Minute

	// DefaultReplayHistory is the history size that triggers a sweep of
	// expired signatures
	DefaultReplayHistory = 1024
)

// ReplayGuard rejects identical submissions inside a sliding window.
// Signatures are opaque; the guard never inspects how they were built.
//
// Only expired signatures are ever forgotten. Once the history reaches
// sweepAt entries, expired ones are dropped before the next record; live
// entries stay until their window closes, so the history may exceed sweepAt.
//
// Thread Safety: Safe for concurrent use via mutex. The check and the
// record happen under one lock, so two concurrent submissions with the
// same signature cannot both pass.
type ReplayGuard struct {
	mu      sync.Mutex
	window  time.Duration
	sweepAt int
	seen    map[string]time.Time
}

// NewReplayGuard creates a guard. Non-positive arguments use the defaults.
func NewReplayGuard(window time.Duration, sweepAt int) *ReplayGuard {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	if sweepAt <= 0 {
		sweepAt = DefaultReplayHistory
	}
	return &ReplayGuard{
		window:  window,
		sweepAt: sweepAt,
		seen:    make(map[string]time.Time),
	}
}

// CheckAndRecord reports whether signature was already submitted within the
// window before now. Non-replays are recorded; replays do not refresh the
// original timestamp.
func (g *ReplayGuard) CheckAndRecord(signature string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.seen[signature]; ok && now.Sub(at) < g.window {
		return true
	}

	if len(g.seen) >= g.sweepAt {
		g.prune(now)
	}
	g.seen[signature] = now
	return false
}

// Len returns the number of remembered submissions
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Reset forgets every submission
func (g *ReplayGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = make(map[string]time.Time)
}

// Window returns the replay window
func (g *ReplayGuard) Window() time.Duration {
	return g.window
}

// prune drops signatures that can no longer match. Caller holds mu.
func (g *ReplayGuard) prune(now time.Time) {
	for sig, at := range g.seen {
		if now.Sub(at) >= g.window {
			delete(g.seen, sig)
		}
	}
}
