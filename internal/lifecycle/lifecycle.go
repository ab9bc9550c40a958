package lifecycle

import "sync/atomic"

// Phase is the process lifecycle stage reported by /health.
type Phase int32

const (
	// Starting covers config load and wiring, before the listener is up.
	Starting Phase = iota
	// Serving means the listener accepts traffic.
	Serving
	// ShuttingDown means a signal arrived and the process is draining.
	ShuttingDown
)

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Serving:
		return "serving"
	case ShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

var phase atomic.Int32

// Current returns the process phase.
func Current() Phase {
	return Phase(phase.Load())
}

// MarkServing records that the listener is up. It does not leave ShuttingDown.
func MarkServing() {
	phase.CompareAndSwap(int32(Starting), int32(Serving))
}

// SetShuttingDown sets or clears the shutdown flag. Call with true when
// SIGTERM/SIGINT is received; health returns 503 shutting-down while set.
// Clearing it returns the process to Serving.
func SetShuttingDown(v bool) {
	if v {
		phase.Store(int32(ShuttingDown))
		return
	}
	phase.Store(int32(Serving))
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return Current() == ShuttingDown
}

// Reset returns to Starting. Tests only.
func Reset() {
	phase.Store(int32(Starting))
}
