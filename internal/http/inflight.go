package http

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kjstillabower/weather-lookup/internal/observability"
)

// InFlightTracker counts requests between Begin and the returned end func.
// Shutdown drains it after the listener stops accepting. A non-nil gauge mirrors the count.
type InFlightTracker struct {
	count atomic.Int64
	gauge prometheus.Gauge
}

// Begin marks one request as in flight. The returned func ends it; extra calls are no-ops.
func (t *InFlightTracker) Begin() (end func()) {
	t.count.Add(1)
	if t.gauge != nil {
		t.gauge.Inc()
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			t.count.Add(-1)
			if t.gauge != nil {
				t.gauge.Dec()
			}
		})
	}
}

// Count returns the number of requests in flight.
func (t *InFlightTracker) Count() int64 {
	return t.count.Load()
}

// Drain blocks until nothing is in flight or ctx is done, checking every interval.
func (t *InFlightTracker) Drain(ctx context.Context, interval time.Duration) error {
	if t.Count() <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.Count() <= 0 {
				return nil
			}
		}
	}
}

// requestsInFlight is fed by MetricsMiddleware for every routed request.
var requestsInFlight = &InFlightTracker{gauge: observability.HTTPRequestsInFlight}

// InFlightCount returns the number of proxy requests currently being served.
func InFlightCount() int64 {
	return requestsInFlight.Count()
}

// WaitForInFlight drains the process-wide tracker.
func WaitForInFlight(ctx context.Context, interval time.Duration) error {
	return requestsInFlight.Drain(ctx, interval)
}
