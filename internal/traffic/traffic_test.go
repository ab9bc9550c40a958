package traffic

import (
	"testing"
	"time"
)

// fakeClock returns a Tracker whose clock is advanced by the returned func.
func fakeClock() (*Tracker, func(time.Duration)) {
	now := time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC)
	tr := New()
	tr.now = func() time.Time { return now }
	return tr, func(d time.Duration) { now = now.Add(d) }
}

func TestRequestCount_Empty(t *testing.T) {
	tr := New()
	if n := tr.RequestCount(time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

func TestErrorRate_SuccessAndError(t *testing.T) {
	tr := New()
	tr.RecordSuccess()
	tr.RecordSuccess()
	tr.RecordError()
	errors, total := tr.ErrorRate(time.Minute)
	if errors != 1 || total != 3 {
		t.Errorf("ErrorRate() = (%d, %d), want (1, 3)", errors, total)
	}
	if n := tr.RequestCount(time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
}

func TestErrorPct(t *testing.T) {
	tr := New()
	if _, ok := tr.ErrorPct(time.Minute); ok {
		t.Error("ErrorPct() ok = true with no outcomes, want false")
	}
	tr.RecordSuccess()
	tr.RecordError()
	pct, ok := tr.ErrorPct(time.Minute)
	if !ok || pct != 50 {
		t.Errorf("ErrorPct() = (%v, %v), want (50, true)", pct, ok)
	}
}

// TestErrorRate_WindowExcludesOld verifies outcomes older than the window are not counted.
func TestErrorRate_WindowExcludesOld(t *testing.T) {
	tr, advance := fakeClock()
	tr.RecordError()
	advance(2 * time.Minute)
	tr.RecordSuccess()

	errors, total := tr.ErrorRate(time.Minute)
	if errors != 0 || total != 1 {
		t.Errorf("ErrorRate(1m) = (%d, %d), want (0, 1)", errors, total)
	}
	errors, total = tr.ErrorRate(5 * time.Minute)
	if errors != 1 || total != 2 {
		t.Errorf("ErrorRate(5m) = (%d, %d), want (1, 2)", errors, total)
	}
}

func TestRecord_ExpiresBeyondRetention(t *testing.T) {
	tr, advance := fakeClock()
	tr.RecordError()
	advance(retention + time.Minute)
	tr.RecordSuccess()

	tr.mu.Lock()
	n := len(tr.outcomes)
	tr.mu.Unlock()
	if n != 1 {
		t.Errorf("outcomes len = %d after retention, want 1", n)
	}
}

func TestReset(t *testing.T) {
	tr := New()
	tr.RecordSuccess()
	tr.RecordError()
	tr.Reset()
	if n := tr.RequestCount(time.Minute); n != 0 {
		t.Errorf("RequestCount() after Reset = %d, want 0", n)
	}
}

func TestZeroValueTracker(t *testing.T) {
	var tr Tracker
	tr.RecordSuccess()
	if n := tr.RequestCount(time.Minute); n != 1 {
		t.Errorf("RequestCount() = %d, want 1", n)
	}
}
