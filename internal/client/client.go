package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-lookup/internal/observability"
)

// Mode identifies which search form a lookup came from. It is also a metric label.
type Mode string

const (
	ModeCity   Mode = "city"
	ModeZip    Mode = "zip"
	ModeCoords Mode = "coords"
)

// Query is one upstream lookup: the mode plus the provider parameters it sets.
type Query struct {
	Mode   Mode
	params url.Values
}

// CityQuery looks up by free-text city name (provider parameter q).
func CityQuery(city string) Query {
	return Query{Mode: ModeCity, params: url.Values{"q": {city}}}
}

// ZipQuery looks up by postal code, optionally suffixed with ",<country>".
func ZipQuery(zip string) Query {
	return Query{Mode: ModeZip, params: url.Values{"zip": {zip}}}
}

// CoordsQuery looks up by latitude and longitude. Values are forwarded as given.
func CoordsQuery(lat, lon string) Query {
	return Query{Mode: ModeCoords, params: url.Values{"lat": {lat}, "lon": {lon}}}
}

// Values returns a copy of the provider parameters for this query.
func (q Query) Values() url.Values {
	out := make(url.Values, len(q.params))
	for k, v := range q.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Response is the raw upstream reply. Body is returned untouched.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// WeatherClient fetches current weather from the upstream provider.
type WeatherClient interface {
	Fetch(ctx context.Context, q Query) (Response, error)
	ValidateAPIKey(ctx context.Context) error
}

var (
	// ErrInvalidAPIKey is returned by ValidateAPIKey when the key is missing or rejected.
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrTransport wraps failures where no upstream reply could be read.
	ErrTransport = errors.New("upstream transport failure")
)

// OpenWeatherClient talks to the OpenWeatherMap current-weather endpoint.
// It holds the secret key; callers never see it.
type OpenWeatherClient struct {
	apiKey string
	apiURL *url.URL
	client *http.Client
}

// NewOpenWeatherClient returns a client for apiURL. An empty apiKey is accepted:
// requests are still sent and the provider rejects them. timeout 0 leaves the
// transport default in place.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host required", apiURL)
	}
	return &OpenWeatherClient{
		apiKey: apiKey,
		apiURL: u,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Fetch sends q upstream with units=metric and the secret key, and returns the
// status and body as received. A non-2xx status is not an error here; only
// failures to get a reply at all are, and those wrap ErrTransport.
func (c *OpenWeatherClient) Fetch(ctx context.Context, q Query) (Response, error) {
	start := time.Now()
	mode := string(q.Mode)

	req, err := c.buildRequest(ctx, q)
	if err != nil {
		observability.RecordUpstreamCall(mode, "error", 0)
		return Response{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.RecordUpstreamCall(mode, "error", time.Since(start).Seconds())
		return Response{}, fmt.Errorf("%w: http request failed: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	observability.RecordUpstreamCall(mode, statusLabel(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return Response{}, fmt.Errorf("%w: read response body: %w", ErrTransport, err)
	}

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, q Query) (*http.Request, error) {
	u := *c.apiURL
	params := u.Query()
	for k, v := range q.params {
		params[k] = v
	}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

// ValidateAPIKey makes one lookup to check the provider accepts the key.
// Used at startup to turn a bad key into an early warning.
func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: API key is not configured", ErrInvalidAPIKey)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.Fetch(ctx, CityQuery("London"))
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}
	if !resp.OK() {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == http.StatusTooManyRequests {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
