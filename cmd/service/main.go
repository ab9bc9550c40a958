package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup/internal/client"
	"github.com/kjstillabower/weather-lookup/internal/config"
	"github.com/kjstillabower/weather-lookup/internal/display"
	httphandler "github.com/kjstillabower/weather-lookup/internal/http"
	"github.com/kjstillabower/weather-lookup/internal/lifecycle"
	"github.com/kjstillabower/weather-lookup/internal/observability"
	"github.com/kjstillabower/weather-lookup/internal/proxyclient"
	"github.com/kjstillabower/weather-lookup/internal/service"
	"github.com/kjstillabower/weather-lookup/internal/traffic"
	"github.com/kjstillabower/weather-lookup/internal/web"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.Fatal("flags", zap.Error(err))
	}

	cfg, err := config.LoadWithOptions(opts)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("config loaded",
		zap.String("env", cfg.EnvName),
		zap.String("port", cfg.ServerPort),
		zap.String("proxy_base_url", cfg.ProxyBaseURL))

	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	if !cfg.HasAPIKey() {
		logger.Warn("OPENWEATHERMAP_API_KEY is not set; lookups will be rejected upstream")
	} else {
		checkCtx, checkCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := weatherClient.ValidateAPIKey(checkCtx); err != nil {
			logger.Warn("API key check failed; continuing", zap.Error(err))
		}
		checkCancel()
	}

	router, err := newRouter(cfg, weatherClient, logger)
	if err != nil {
		logger.Fatal("router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		lifecycle.MarkServing()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	drainAndShutdown(srv, cfg, logger)

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry flush: %v\n", err)
	}
	logger.Info("shutdown complete")
}

// drainAndShutdown marks the process shutting-down, waits for in-flight requests
// and only then stops the server. The listener stays open while draining: a page
// render calls back into /weather/* through it.
func drainAndShutdown(srv *http.Server, cfg *config.Config, logger *zap.Logger) {
	lifecycle.SetShuttingDown(true)

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}

// parseFlags reads --config-dir and --env. Both default to the loader's own defaults.
func parseFlags(args []string) (config.Options, error) {
	fs := flag.NewFlagSet("weather-lookup", flag.ContinueOnError)
	configDir := fs.String("config-dir", "", "directory holding {env}.yaml and secrets.yaml (default ./config)")
	envName := fs.StringP("env", "e", "", "config environment name, overrides ENV_NAME")
	if err := fs.Parse(args); err != nil {
		return config.Options{}, err
	}
	return config.Options{Dir: *configDir, EnvName: *envName}, nil
}

// newRouter wires the proxy, health, metrics and the page. The page talks to the
// proxy over HTTP at cfg.ProxyBaseURL, like a browser would.
func newRouter(cfg *config.Config, weatherClient client.WeatherClient, logger *zap.Logger) (*mux.Router, error) {
	tracker := traffic.New()
	weatherService := service.NewWeatherService(weatherClient, tracker)

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		HasAPIKey:        cfg.HasAPIKey(),
	}
	handler := httphandler.NewHandler(weatherService, tracker, healthConfig, logger)

	proxy, err := proxyclient.New(cfg.ProxyBaseURL, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("proxy client: %w", err)
	}
	page, err := web.NewPage(proxy, display.Units(cfg.DefaultUnits), logger)
	if err != nil {
		return nil, err
	}

	return httphandler.NewRouter(handler, logger, httphandler.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		Page:           page,
	}), nil
}
