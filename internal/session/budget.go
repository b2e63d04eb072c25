// Package session holds the mutable per-session guards: the oracle call
// budget and the submission replay history.
package session

import "sync"

// DefaultMaxOracleCalls is the per-session oracle call ceiling
const DefaultMaxOracleCalls = 15

// BudgetGuard caps how many oracle calls a session may issue.
// There is no refill; the counter only returns to zero on Reset.
//
// Thread Safety: Safe for concurrent use via mutex.
type BudgetGuard struct {
	mu      sync.Mutex
	ceiling int
	used    int
}

// NewBudgetGuard creates a guard. A non-positive ceiling uses DefaultMaxOracleCalls.
func NewBudgetGuard(ceiling int) *BudgetGuard {
	if ceiling <= 0 {
		ceiling = DefaultMaxOracleCalls
	}
	return &BudgetGuard{ceiling: ceiling}
}

// TryConsume reserves one call. It returns false once the ceiling is reached.
func (b *BudgetGuard) TryConsume() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used >= b.ceiling {
		return false
	}
	b.used++
	return true
}

// Reset returns the counter to zero
func (b *BudgetGuard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = 0
}

// Used returns the number of calls consumed so far
func (b *BudgetGuard) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Remaining returns the number of calls still available
func (b *BudgetGuard) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ceiling - b.used
}

// Ceiling returns the configured maximum
func (b *BudgetGuard) Ceiling() int {
	return b.ceiling
}
