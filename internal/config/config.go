package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultWeatherAPIURL is the OpenWeatherMap current-weather endpoint.
const DefaultWeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"

// Config holds service configuration loaded from YAML, secrets and env.
// It is built once at startup and handed to the components that need it.
type Config struct {
	EnvName string

	ServerPort string `validate:"required,numeric"`

	// WeatherAPIKey may be empty; requests are still forwarded and fail upstream.
	WeatherAPIKey     string
	WeatherAPIURL     string        `validate:"required,url"`
	WeatherAPITimeout time.Duration `validate:"gte=0"` // 0 = transport default

	RequestTimeout time.Duration `validate:"gte=0"` // 0 = no per-request deadline

	ShutdownTimeout               time.Duration `validate:"gt=0"`
	ShutdownInFlightTimeout       time.Duration `validate:"gt=0"`
	ShutdownInFlightCheckInterval time.Duration `validate:"gt=0"`

	DegradedWindow   time.Duration `validate:"gte=0"`
	DegradedErrorPct int           `validate:"gte=0,lte=100"`

	ProxyBaseURL string `validate:"required,url"`
	DefaultUnits string `validate:"oneof=metric imperial"`
}

// HasAPIKey reports whether an upstream key was configured.
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.WeatherAPIKey) != ""
}

// Options controls where Load looks for files. Zero values use defaults.
type Options struct {
	Dir     string // directory holding {env}.yaml and secrets.yaml; default ./config
	EnvName string // overrides ENV_NAME
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Shutdown struct {
		Timeout            string `yaml:"timeout"`
		InFlightTimeout    string `yaml:"in_flight_timeout"`
		InFlightCheckEvery string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct *int   `yaml:"degraded_error_pct"`
	} `yaml:"health"`

	UI struct {
		ProxyBaseURL string `yaml:"proxy_base_url"`
		DefaultUnits string `yaml:"default_units"`
	} `yaml:"ui"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// envOverrides is the environment layer. OPENWEATHERMAP_API_KEY wins over WEATHER_API_KEY.
type envOverrides struct {
	EnvName       string `envconfig:"ENV_NAME" default:"dev"`
	APIKey        string `envconfig:"OPENWEATHERMAP_API_KEY"`
	LegacyAPIKey  string `envconfig:"WEATHER_API_KEY"`
	WeatherAPIURL string `envconfig:"WEATHER_API_URL"`
	ServerPort    string `envconfig:"SERVER_PORT"`
	ProxyBaseURL  string `envconfig:"PROXY_BASE_URL"`
}

// ErrConfigNotFound is returned when the {env}.yaml file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

var validate = validator.New()

// Load reads config/{ENV_NAME}.yaml (default dev) relative to the working directory.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads {Dir}/{env}.yaml and {Dir}/secrets.yaml, then applies env overrides.
// The API key comes from OPENWEATHERMAP_API_KEY, WEATHER_API_KEY or the secrets file.
// A missing key is not an error; callers check HasAPIKey and warn.
func LoadWithOptions(opts Options) (*Config, error) {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	envName := firstNonEmpty(opts.EnvName, env.EnvName, "dev")

	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: get working directory: %w", err)
		}
		dir = filepath.Join(cwd, "config")
	}

	configPath := filepath.Join(dir, envName+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{EnvName: envName}

	cfg.ServerPort = firstNonEmpty(env.ServerPort, fc.Server.Port, "8080")

	cfg.WeatherAPIKey = firstNonEmpty(env.APIKey, env.LegacyAPIKey)
	if cfg.WeatherAPIKey == "" {
		key, err := readSecrets(filepath.Join(dir, "secrets.yaml"))
		if err != nil {
			return nil, err
		}
		cfg.WeatherAPIKey = key
	}

	cfg.WeatherAPIURL = firstNonEmpty(env.WeatherAPIURL, fc.WeatherAPI.URL, DefaultWeatherAPIURL)
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 0)
	cfg.RequestTimeout = parseDurationOrZero(fc.Request.Timeout, 0)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckEvery, 100*time.Millisecond)

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = 50
	if fc.Health.DegradedErrorPct != nil {
		cfg.DegradedErrorPct = *fc.Health.DegradedErrorPct
	}

	cfg.ProxyBaseURL = proxyBaseURL(env, fc.UI.ProxyBaseURL, cfg.ServerPort)
	cfg.DefaultUnits = strings.ToLower(firstNonEmpty(fc.UI.DefaultUnits, "imperial"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// proxyBaseURL picks where the page reaches the proxy. PROXY_BASE_URL wins. A file
// value only applies while the listener stays on the file's port; once SERVER_PORT
// moves it, the URL follows the effective port.
func proxyBaseURL(env envOverrides, fileURL, port string) string {
	derived := "http://localhost:" + port
	if strings.TrimSpace(env.ServerPort) != "" {
		return firstNonEmpty(env.ProxyBaseURL, derived)
	}
	return firstNonEmpty(env.ProxyBaseURL, fileURL, derived)
}

// readSecrets returns the key from the secrets file; a missing file yields "".
func readSecrets(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.WeatherAPIKey), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero and negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validateConfig runs struct-tag validation, then keeps RequestTimeout above
// WeatherAPITimeout when both are set so the upstream call can report its own timeout.
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q validation (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.RequestTimeout > 0 && cfg.WeatherAPITimeout > 0 && cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	return nil
}
