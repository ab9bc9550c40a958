// Package traffic keeps a short history of upstream lookup outcomes so the
// health endpoint can report a degraded provider.
package traffic

import (
	"sort"
	"sync"
	"time"
)

// retention bounds how long outcomes are kept regardless of the queried window.
const retention = 30 * time.Minute

type outcome struct {
	at     time.Time
	failed bool
}

// Tracker is an append-only, time-ordered log of outcomes. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	now      func() time.Time
	outcomes []outcome
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{now: time.Now}
}

// RecordSuccess records a lookup the provider answered normally, including
// rejections caused by user input such as an unknown city.
func (t *Tracker) RecordSuccess() { t.record(false) }

// RecordError records a transport failure, rejected credentials, throttling or a 5xx reply.
func (t *Tracker) RecordError() { t.record(true) }

func (t *Tracker) record(failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	t.outcomes = append(t.outcomes, outcome{at: now, failed: failed})
	t.expireLocked(now.Add(-retention))
}

// RequestCount returns the number of outcomes within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	_, total := t.ErrorRate(window)
	return total
}

// ErrorRate returns (errorCount, totalCount) within the window.
func (t *Tracker) ErrorRate(window time.Duration) (errors, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.outcomes[t.firstAtOrAfterLocked(t.clock().Add(-window)):] {
		total++
		if o.failed {
			errors++
		}
	}
	return errors, total
}

// ErrorPct returns the error percentage within the window. ok is false when
// the window holds no outcomes.
func (t *Tracker) ErrorPct(window time.Duration) (pct float64, ok bool) {
	errs, total := t.ErrorRate(window)
	if total == 0 {
		return 0, false
	}
	return float64(errs) * 100 / float64(total), true
}

// Reset forgets every outcome.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.outcomes = nil
	t.mu.Unlock()
}

func (t *Tracker) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

// firstAtOrAfterLocked returns the index of the oldest outcome not before cutoff.
func (t *Tracker) firstAtOrAfterLocked(cutoff time.Time) int {
	return sort.Search(len(t.outcomes), func(i int) bool {
		return !t.outcomes[i].at.Before(cutoff)
	})
}

func (t *Tracker) expireLocked(cutoff time.Time) {
	if i := t.firstAtOrAfterLocked(cutoff); i > 0 {
		t.outcomes = append(t.outcomes[:0], t.outcomes[i:]...)
	}
}
