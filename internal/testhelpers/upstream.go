// Package testhelpers holds fixtures shared by package tests: the sample
// OpenWeatherMap reading and a fake upstream server.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/kjstillabower/weather-lookup/internal/models"
)

// SampleReadingJSON is a current-weather reply for Bentonville, US.
const SampleReadingJSON = `{
  "coord": {"lon": -94.2088, "lat": 36.3728},
  "weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01n"}],
  "base": "stations",
  "main": {"temp": 11.59, "feels_like": 9.61, "temp_min": 10.45, "temp_max": 12.12, "pressure": 1013, "humidity": 31, "sea_level": 1013, "grnd_level": 967},
  "visibility": 10000,
  "wind": {"speed": 6.17, "deg": 140},
  "clouds": {"all": 0},
  "dt": 1741312248,
  "sys": {"type": 1, "id": 6160, "country": "US", "sunrise": 1741264816, "sunset": 1741306564},
  "timezone": -21600,
  "id": 4101260,
  "name": "Bentonville",
  "cod": 200
}`

// SampleReading returns SampleReadingJSON decoded.
func SampleReading(t testing.TB) models.WeatherReading {
	t.Helper()
	var r models.WeatherReading
	if err := json.Unmarshal([]byte(SampleReadingJSON), &r); err != nil {
		t.Fatalf("decode sample reading: %v", err)
	}
	return r
}

// Upstream is a fake OpenWeatherMap endpoint that records every query it receives.
type Upstream struct {
	*httptest.Server

	mu      sync.Mutex
	queries []url.Values
}

// NewUpstream starts a fake provider that answers every request with status and body.
// The server is closed when the test ends.
func NewUpstream(t testing.TB, status int, body string) *Upstream {
	t.Helper()
	u := &Upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.queries = append(u.queries, r.URL.Query())
		u.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

// Queries returns the query strings received so far.
func (u *Upstream) Queries() []url.Values {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]url.Values(nil), u.queries...)
}

// Calls returns how many requests reached the fake provider.
func (u *Upstream) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.queries)
}
