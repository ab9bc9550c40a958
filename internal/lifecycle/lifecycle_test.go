package lifecycle

import "testing"

func TestCurrent_DefaultStarting(t *testing.T) {
	Reset()
	if got := Current(); got != Starting {
		t.Errorf("Current() = %v, want starting", got)
	}
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false by default")
	}
}

func TestMarkServing(t *testing.T) {
	Reset()
	defer Reset()
	MarkServing()
	if got := Current(); got != Serving {
		t.Errorf("Current() = %v, want serving", got)
	}
}

func TestMarkServing_DoesNotLeaveShutdown(t *testing.T) {
	Reset()
	defer Reset()
	SetShuttingDown(true)
	MarkServing()
	if !IsShuttingDown() {
		t.Error("MarkServing() cleared the shutdown flag")
	}
}

func TestSetShuttingDown(t *testing.T) {
	Reset()
	defer Reset()
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false), want false")
	}
	if got := Current(); got != Serving {
		t.Errorf("Current() = %v after clearing shutdown, want serving", got)
	}
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		Starting:     "starting",
		Serving:      "serving",
		ShuttingDown: "shutting-down",
		Phase(9):     "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
