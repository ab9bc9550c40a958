package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/observability"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// RequestTimeout bounds /weather lookups. 0 disables it.
	RequestTimeout time.Duration
	// Page serves GET /. Nil leaves the root unrouted.
	Page http.Handler
}

// NewRouter wires the proxy endpoints, health, metrics and the page behind the
// correlation and metrics middleware.
func NewRouter(h *Handler, logger *zap.Logger, opts RouterOptions) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	weather := router.PathPrefix("/weather").Subrouter()
	weather.Use(TimeoutMiddleware(opts.RequestTimeout))
	weather.HandleFunc("/city", h.GetWeatherByCity).Methods(http.MethodGet)
	weather.HandleFunc("/zip", h.GetWeatherByZip).Methods(http.MethodGet)
	weather.HandleFunc("/coords", h.GetWeatherByCoords).Methods(http.MethodGet)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	if opts.Page != nil {
		router.Handle("/", opts.Page).Methods(http.MethodGet)
	}
	return router
}
