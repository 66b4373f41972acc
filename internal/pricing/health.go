package pricing

import (
	"sort"
	"sync"
	"time"
)

// DefaultSkipAfter is the number of consecutive timeout-like outcomes
// before a source is bypassed for the rest of the run.
const DefaultSkipAfter = 3

// HealthTracker accumulates per-source failure state across the whole run.
// It is the only state shared between concurrent attempts within a batch;
// all access goes through the mutex. A source that keeps timing out or
// throttling goes silent after skipAfter strikes instead of being hammered
// for every remaining product.
type HealthTracker struct {
	mu        sync.Mutex
	skipAfter int
	states    map[string]*ShopHealth
}

// NewHealthTracker creates a tracker with the given auto-skip threshold.
func NewHealthTracker(skipAfter int) *HealthTracker {
	if skipAfter <= 0 {
		skipAfter = DefaultSkipAfter
	}
	return &HealthTracker{
		skipAfter: skipAfter,
		states:    make(map[string]*ShopHealth),
	}
}

// ShouldSkip reports whether the source has reached the auto-skip threshold.
// The orchestrator consults this before making any network call.
func (t *HealthTracker) ShouldSkip(shop string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[shop]
	return ok && state.TimeoutsInRow >= t.skipAfter
}

// RecordAttempt registers a completed attempt for a source. A timeout-like
// outcome (timeout, 429, 503) advances the consecutive-failure counter;
// any other outcome resets it to zero.
func (t *HealthTracker) RecordAttempt(shop string, duration time.Duration, timeoutLike bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.state(shop)
	t.addRun(state, duration)
	if timeoutLike {
		state.TimeoutsInRow++
		return
	}
	state.TimeoutsInRow = 0
}

// RecordSkip registers a pre-emptively bypassed attempt. It counts toward
// runs and the duration average but leaves the failure counter untouched,
// so a skipped source stays skipped.
func (t *HealthTracker) RecordSkip(shop string, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.state(shop)
	t.addRun(state, duration)
	state.Skipped++
}

// Snapshot returns a copy of all source states, sorted by shop name.
func (t *HealthTracker) Snapshot() []ShopHealth {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ShopHealth, 0, len(t.states))
	for _, state := range t.states {
		out = append(out, *state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shop < out[j].Shop })
	return out
}

func (t *HealthTracker) state(shop string) *ShopHealth {
	state, ok := t.states[shop]
	if !ok {
		state = &ShopHealth{Shop: shop}
		t.states[shop] = state
	}
	return state
}

func (t *HealthTracker) addRun(state *ShopHealth, duration time.Duration) {
	state.Runs++
	ms := float64(duration.Milliseconds())
	state.AvgDurationMs += (ms - state.AvgDurationMs) / float64(state.Runs)
}
