package traffic

import (
	"sync"
	"time"
)

// MaxWindow is how long outcomes are retained. Queries over a longer window
// would undercount, so configured health windows must not exceed it.
const MaxWindow = 10 * time.Minute

// Outcome classifies a served request.
type Outcome int

const (
	Success Outcome = iota
	Error
	Denied
)

var defaultTracker = NewTracker(time.Now)

// RecordSuccess records a request that was served (any non-5xx, non-429 status).
func RecordSuccess() { defaultTracker.Record(Success) }

// RecordError records a request that ended in a server error.
func RecordError() { defaultTracker.Record(Error) }

// RecordDenied records a rate-limit denial (429).
func RecordDenied() { defaultTracker.Record(Denied) }

// RequestCount returns the number of outcomes (success + error + denied) within the window.
func RequestCount(window time.Duration) int { return defaultTracker.RequestCount(window) }

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int { return defaultTracker.DenialCount(window) }

// ErrorRate returns (errorCount, totalCount) within the window. Denials are excluded.
func ErrorRate(window time.Duration) (errors, total int) { return defaultTracker.ErrorRate(window) }

// Reset clears all recorded outcomes. For tests only.
func Reset() { defaultTracker.Reset() }

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered sliding window of request outcomes.
// It backs the overload and degraded health checks and the window gauges.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time
	// events[head:] are live; the expired prefix is reclaimed once it
	// outgrows the live part.
	events []event
	head   int
}

// NewTracker returns a Tracker reading time from now.
func NewTracker(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Record appends an outcome at the current time.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.events = append(t.events, event{at: now, outcome: o})
	t.pruneLocked(now)
}

// RequestCount returns the number of outcomes of any kind within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	counts := t.count(window)
	return counts[Success] + counts[Error] + counts[Denied]
}

// DenialCount returns the number of denials within the window.
func (t *Tracker) DenialCount(window time.Duration) int {
	return t.count(window)[Denied]
}

// ErrorRate returns (errorCount, successCount+errorCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	counts := t.count(window)
	return counts[Error], counts[Error] + counts[Success]
}

// Reset clears all outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.head = 0
}

func (t *Tracker) count(window time.Duration) [3]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var counts [3]int
	cutoff := t.now().Add(-window)
	for i := len(t.events) - 1; i >= t.head; i-- {
		ev := t.events[i]
		if ev.at.Before(cutoff) {
			break
		}
		counts[ev.outcome]++
	}
	return counts
}

// pruneLocked advances head past events older than MaxWindow and compacts
// the backing slice when the expired prefix is at least half of it.
// Must be called with mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-MaxWindow)
	for t.head < len(t.events) && t.events[t.head].at.Before(cutoff) {
		t.head++
	}
	if t.head > 0 && t.head*2 >= len(t.events) {
		n := copy(t.events, t.events[t.head:])
		t.events = t.events[:n]
		t.head = 0
	}
}
