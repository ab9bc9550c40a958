// Package proxyclient calls the weather proxy endpoints and decodes readings.
package proxyclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kjstillabower/weather-lookup/internal/models"
	"github.com/kjstillabower/weather-lookup/internal/observability"
)

// ErrRequestFailed is wrapped by every non-2xx proxy reply.
var ErrRequestFailed = errors.New("failed to fetch weather data")

// StatusError is a non-2xx proxy reply.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRequestFailed, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrRequestFailed
}

// Client fetches readings from the proxy at baseURL. It adds no retry, cache or
// timeout of its own; callers bound requests with their context.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// New returns a Client for the proxy at baseURL. httpClient nil means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: scheme and host required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, httpClient: httpClient}, nil
}

// ByCity fetches the reading for a city name.
func (c *Client) ByCity(ctx context.Context, city string) (models.WeatherReading, error) {
	return c.get(ctx, "/weather/city", url.Values{"city": {city}})
}

// ByZip fetches the reading for a postal code, optionally "<zip>,<country>".
func (c *Client) ByZip(ctx context.Context, zip string) (models.WeatherReading, error) {
	return c.get(ctx, "/weather/zip", url.Values{"zip": {zip}})
}

// ByCoords fetches the reading for a latitude and longitude.
func (c *Client) ByCoords(ctx context.Context, lat, lon string) (models.WeatherReading, error) {
	return c.get(ctx, "/weather/coords", url.Values{"lat": {lat}, "lon": {lon}})
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (models.WeatherReading, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return models.WeatherReading{}, &StatusError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	var reading models.WeatherReading
	if err := json.NewDecoder(resp.Body).Decode(&reading); err != nil {
		return models.WeatherReading{}, fmt.Errorf("decode reading: %w", err)
	}
	return reading, nil
}

// statusText returns the reason phrase, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
}
