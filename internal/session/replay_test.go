package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReplayGuard_WindowBoundary(t *testing.T) {
	guard := NewReplayGuard(0, 0)
	now := time.UnixMilli(1_700_000_000_000)

	assert.False(t, guard.CheckAndRecord("ABC", now), "first submission is never a replay")
	assert.True(t, guard.CheckAndRecord("ABC", now.Add(299_999*time.Millisecond)))
	assert.False(t, guard.CheckAndRecord("ABC", now.Add(300_001*time.Millisecond)))
}

func TestReplayGuard_ExactWindowIsNotReplay(t *testing.T) {
	guard := NewReplayGuard(5*time.Minute, 0)
	now := time.UnixMilli(0)

	guard.CheckAndRecord("sig", now)
	assert.False(t, guard.CheckAndRecord("sig", now.Add(5*time.Minute)))
}

func TestReplayGuard_ReplayDoesNotRefreshTimestamp(t *testing.T) {
	guard := NewReplayGuard(5*time.Minute, 0)
	now := time.UnixMilli(0)

	assert.False(t, guard.CheckAndRecord("sig", now))
	assert.True(t, guard.CheckAndRecord("sig", now.Add(4*time.Minute)))
	assert.Equal(t, 1, guard.Len())

	// Measured from the original submission, not the replay
	assert.False(t, guard.CheckAndRecord("sig", now.Add(5*time.Minute+time.Millisecond)))
}

func TestReplayGuard_DistinctSignatures(t *testing.T) {
	guard := NewReplayGuard(time.Minute, 0)
	now := time.Now()

	assert.False(t, guard.CheckAndRecord("one", now))
	assert.False(t, guard.CheckAndRecord("two", now))
	assert.True(t, guard.CheckAndRecord("one", now.Add(time.Second)))
	assert.True(t, guard.CheckAndRecord("two", now.Add(time.Second)))
}

func TestReplayGuard_SweepsOnlyExpired(t *testing.T) {
	guard := NewReplayGuard(time.Minute, 3)
	now := time.UnixMilli(0)

	guard.CheckAndRecord("old", now)
	guard.CheckAndRecord("a", now.Add(2*time.Minute))
	guard.CheckAndRecord("b", now.Add(2*time.Minute))
	assert.Equal(t, 3, guard.Len(), "no sweep below the threshold")

	guard.CheckAndRecord("c", now.Add(2*time.Minute))
	assert.Equal(t, 3, guard.Len(), "expired entry is swept at the threshold")

	guard.CheckAndRecord("d", now.Add(2*time.Minute))
	assert.Equal(t, 4, guard.Len(), "live entries are never evicted")
	assert.True(t, guard.CheckAndRecord("a", now.Add(2*time.Minute+time.Second)))
}

func TestReplayGuard_InWindowReplayDetectedPastThreshold(t *testing.T) {
	guard := NewReplayGuard(0, 0)
	now := time.UnixMilli(1_700_000_000_000)

	assert.False(t, guard.CheckAndRecord("victim", now))
	for i := range DefaultReplayHistory {
		guard.CheckAndRecord(fmt.Sprintf("filler-%d", i), now.Add(time.Millisecond))
	}

	assert.Equal(t, DefaultReplayHistory+1, guard.Len())
	assert.True(t, guard.CheckAndRecord("victim", now.Add(2*time.Second)))
}

func TestReplayGuard_Reset(t *testing.T) {
	guard := NewReplayGuard(time.Minute, 0)
	now := time.Now()

	guard.CheckAndRecord("sig", now)
	guard.Reset()
	assert.Equal(t, 0, guard.Len())
	assert.False(t, guard.CheckAndRecord("sig", now))
}

func TestReplayGuard_ConcurrentSameSignature(t *testing.T) {
	guard := NewReplayGuard(time.Minute, 0)
	now := time.Now()

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !guard.CheckAndRecord("same", now) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
}
