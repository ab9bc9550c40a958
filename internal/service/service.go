package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/client"
	"github.com/kjstillabower/weather-lookup/internal/observability"
	"github.com/kjstillabower/weather-lookup/internal/traffic"
)

// GenericFailureMessage is shown when the provider gives no usable message or
// the lookup failed before any reply.
const GenericFailureMessage = "Failed to fetch weather data"

// UpstreamError is a provider rejection: a non-2xx reply with its status and
// the provider's message (or GenericFailureMessage).
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream rejected lookup: HTTP %d: %s", e.StatusCode, e.Message)
}

// ErrLookupFailed wraps every failure where no provider reply could be relayed.
var ErrLookupFailed = errors.New("weather lookup failed")

// Result is a successful provider reply, relayed verbatim.
type Result struct {
	StatusCode int
	Body       json.RawMessage
}

// WeatherService forwards lookups to the provider and interprets the reply.
// It keeps no per-request state; outcomes feed the shared traffic tracker.
type WeatherService struct {
	client  client.WeatherClient
	tracker *traffic.Tracker
}

// NewWeatherService returns a service using c. tracker may be nil.
func NewWeatherService(c client.WeatherClient, tracker *traffic.Tracker) *WeatherService {
	return &WeatherService{client: c, tracker: tracker}
}

// Lookup sends q upstream. On a 2xx reply it returns the body unmodified after
// checking it is JSON. A non-2xx reply yields *UpstreamError; anything else wraps
// ErrLookupFailed.
func (s *WeatherService) Lookup(ctx context.Context, q client.Query) (Result, error) {
	start := time.Now()
	mode := string(q.Mode)
	logger := observability.LoggerFromContext(ctx, nil)

	resp, err := s.client.Fetch(ctx, q)
	if err != nil {
		s.recordFailure(mode, client.CategorizeError(err))
		return Result{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if !resp.OK() {
		category := client.CategorizeStatus(resp.StatusCode)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(category)).Inc()
		observability.RecordLookup(mode, "rejected")
		if s.tracker != nil {
			if countsAsError(resp.StatusCode) {
				s.tracker.RecordError()
			} else {
				s.tracker.RecordSuccess()
			}
		}
		upErr := &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(resp.Body)}
		logger.Debug("upstream rejected lookup",
			zap.String("mode", mode),
			zap.Int("status", resp.StatusCode),
			zap.String("message", upErr.Message))
		return Result{}, upErr
	}

	if !json.Valid(resp.Body) {
		s.recordFailure(mode, client.ErrorCategoryParsing)
		return Result{}, fmt.Errorf("%w: parse response: body is not valid JSON", ErrLookupFailed)
	}

	observability.RecordLookup(mode, "success")
	if s.tracker != nil {
		s.tracker.RecordSuccess()
	}
	logger.Debug("weather served", zap.String("mode", mode), zap.Duration("duration", time.Since(start)))
	return Result{StatusCode: resp.StatusCode, Body: json.RawMessage(resp.Body)}, nil
}

func (s *WeatherService) recordFailure(mode string, category client.ErrorCategory) {
	observability.WeatherAPIErrorsTotal.WithLabelValues(string(category)).Inc()
	observability.RecordLookup(mode, "failed")
	if s.tracker != nil {
		s.tracker.RecordError()
	}
}

// countsAsError reports whether a provider status reflects a service problem
// rather than a bad search. Unknown places (404) and bad input (400) do not.
func countsAsError(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusTooManyRequests || status >= 500
}

// upstreamMessage extracts the provider's "message" field, falling back to
// GenericFailureMessage for empty or undecodable bodies.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return GenericFailureMessage
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return GenericFailureMessage
}
