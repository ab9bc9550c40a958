package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/client"
	"github.com/kjstillabower/weather-lookup/internal/lifecycle"
	"github.com/kjstillabower/weather-lookup/internal/observability"
	"github.com/kjstillabower/weather-lookup/internal/service"
	"github.com/kjstillabower/weather-lookup/internal/traffic"
	"github.com/kjstillabower/weather-lookup/internal/validation"
)

// Messages returned in the 400 body when a required query parameter is missing.
const (
	MsgCityRequired   = "City parameter is required"
	MsgZipRequired    = "ZIP code parameter is required"
	MsgCoordsRequired = "Latitude and longitude parameters are required"
)

// Version is reported by /health. Release builds set it with
// -ldflags "-X github.com/kjstillabower/weather-lookup/internal/http.Version=<tag>".
var Version = "dev"

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// HasAPIKey is false when no upstream key was configured; health reports degraded.
	HasAPIKey bool
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	weatherService   *service.WeatherService
	tracker          *traffic.Tracker
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. tracker and healthConfig may be nil.
func NewHandler(
	weatherService *service.WeatherService,
	tracker *traffic.Tracker,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		weatherService: weatherService,
		tracker:        tracker,
		healthConfig:   healthConfig,
		logger:         logger,
	}
}

// GetWeatherByCity handles GET /weather/city?city=.
func (h *Handler) GetWeatherByCity(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, client.ModeCity, MsgCityRequired, func(v []string) client.Query {
		return client.CityQuery(v[0])
	}, "city")
}

// GetWeatherByZip handles GET /weather/zip?zip=.
func (h *Handler) GetWeatherByZip(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, client.ModeZip, MsgZipRequired, func(v []string) client.Query {
		return client.ZipQuery(v[0])
	}, "zip")
}

// GetWeatherByCoords handles GET /weather/coords?lat=&lon=.
// Values are forwarded as given; the provider judges their range.
func (h *Handler) GetWeatherByCoords(w http.ResponseWriter, r *http.Request) {
	h.lookup(w, r, client.ModeCoords, MsgCoordsRequired, func(v []string) client.Query {
		return client.CoordsQuery(v[0], v[1])
	}, "lat", "lon")
}

// lookup validates params, forwards the query and relays the outcome.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, mode client.Mode, missingMsg string, build func([]string) client.Query, params ...string) {
	logger := observability.LoggerFromContext(r.Context(), h.logger)

	values, err := validation.RequireParams(r.URL.Query(), params...)
	if err != nil {
		observability.RecordLookup(string(mode), "invalid")
		logger.Debug("rejected lookup", zap.String("mode", string(mode)), zap.Error(err))
		writeError(w, r, http.StatusBadRequest, missingMsg)
		return
	}

	result, err := h.weatherService.Lookup(r.Context(), build(values))
	if err != nil {
		var upErr *service.UpstreamError
		if errors.As(err, &upErr) {
			writeError(w, r, upErr.StatusCode, upErr.Message)
			return
		}
		writeServiceError(w, r, h.logger, mode, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(result.Body)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"weatherApi": "healthy", "apiKey": "configured"}
	if result.status == "degraded" {
		checks["weatherApi"] = "unhealthy"
	}
	if h.healthConfig != nil && !h.healthConfig.HasAPIKey {
		checks["apiKey"] = "missing"
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "weather-lookup",
		"version":   Version,
		"phase":     lifecycle.Current().String(),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > key missing > error rate breach > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	if !h.healthConfig.HasAPIKey {
		return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_missing"}
	}
	if h.tracker != nil && h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		if pct, ok := h.tracker.ErrorPct(h.healthConfig.DegradedWindow); ok && pct >= float64(h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message, "requestId": id}. requestId is omitted
// when the request carries no correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	body := map[string]string{"error": message}
	if corrID := observability.CorrelationID(r.Context()); corrID != "" {
		body["requestId"] = corrID
	}
	writeJSON(w, status, body)
}

// writeServiceError answers 500 with the generic message. The cause stays in the logs.
func writeServiceError(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, mode client.Mode, err error) {
	logger := observability.LoggerFromContext(r.Context(), fallback)
	logger.Error("weather lookup failed",
		zap.String("mode", string(mode)),
		zap.String("category", string(client.CategorizeError(err))),
		zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, service.GenericFailureMessage)
}
