package proxyclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-lookup/internal/testhelpers"
)

type recordedRequest struct {
	path  string
	query url.Values
}

func newProxy(t *testing.T, status int, body string) (*Client, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs = append(reqs, recordedRequest{path: r.URL.Path, query: r.URL.Query()})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, srv.Client())
	require.NoError(t, err)
	return c, &reqs
}

func TestNew(t *testing.T) {
	_, err := New("http://localhost:8080/", nil)
	assert.NoError(t, err)

	_, err = New("localhost:8080", nil)
	assert.Error(t, err)

	_, err = New("://nope", nil)
	assert.Error(t, err)
}

func TestClient_ResolvesWithDecodedReading(t *testing.T) {
	want := testhelpers.SampleReading(t)

	tests := []struct {
		name      string
		call      func(t *testing.T, c *Client) error
		wantPath  string
		wantQuery url.Values
	}{
		{
			name: "city",
			call: func(t *testing.T, c *Client) error {
				got, err := c.ByCity(context.Background(), "Bentonville")
				assert.Equal(t, want, got)
				return err
			},
			wantPath:  "/weather/city",
			wantQuery: url.Values{"city": {"Bentonville"}},
		},
		{
			name: "zip",
			call: func(t *testing.T, c *Client) error {
				got, err := c.ByZip(context.Background(), "72712,us")
				assert.Equal(t, want, got)
				return err
			},
			wantPath:  "/weather/zip",
			wantQuery: url.Values{"zip": {"72712,us"}},
		},
		{
			name: "coords",
			call: func(t *testing.T, c *Client) error {
				got, err := c.ByCoords(context.Background(), "36.37", "-94.21")
				assert.Equal(t, want, got)
				return err
			},
			wantPath:  "/weather/coords",
			wantQuery: url.Values{"lat": {"36.37"}, "lon": {"-94.21"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, reqs := newProxy(t, http.StatusOK, testhelpers.SampleReadingJSON)

			require.NoError(t, tt.call(t, c))
			require.Len(t, *reqs, 1)
			assert.Equal(t, tt.wantPath, (*reqs)[0].path)
			assert.Equal(t, tt.wantQuery, (*reqs)[0].query)
		})
	}
}

func TestClient_EncodesFreeText(t *testing.T) {
	c, reqs := newProxy(t, http.StatusOK, testhelpers.SampleReadingJSON)

	_, err := c.ByCity(context.Background(), "Saint-Louis & Co?")
	require.NoError(t, err)
	assert.Equal(t, "Saint-Louis & Co?", (*reqs)[0].query.Get("city"))
}

// lookups drives each client entry point with a fixed search.
var lookups = []struct {
	name string
	call func(c *Client) error
}{
	{"city", func(c *Client) error { _, err := c.ByCity(context.Background(), "Atlantis"); return err }},
	{"zip", func(c *Client) error { _, err := c.ByZip(context.Background(), "00000"); return err }},
	{"coords", func(c *Client) error { _, err := c.ByCoords(context.Background(), "91", "181"); return err }},
}

// TestClient_RejectsNonOK verifies every lookup turns a non-2xx reply into an
// error carrying the status text, whatever body the proxy sent.
func TestClient_RejectsNonOK(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErrMsg string
	}{
		{"not found with message", http.StatusNotFound, `{"error":"city not found"}`, "failed to fetch weather data: Not Found"},
		{"bad request", http.StatusBadRequest, `{"error":"City parameter is required"}`, "failed to fetch weather data: Bad Request"},
		{"server error without body", http.StatusInternalServerError, ``, "failed to fetch weather data: Internal Server Error"},
		{"ok body on error status", http.StatusBadGateway, testhelpers.SampleReadingJSON, "failed to fetch weather data: Bad Gateway"},
	}
	for _, tt := range tests {
		for _, lookup := range lookups {
			t.Run(tt.name+"/"+lookup.name, func(t *testing.T) {
				c, reqs := newProxy(t, tt.status, tt.body)

				err := lookup.call(c)

				require.Error(t, err)
				require.Len(t, *reqs, 1)
				assert.EqualError(t, err, tt.wantErrMsg)
				assert.ErrorIs(t, err, ErrRequestFailed)
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
			})
		}
	}
}

func TestClient_DecodeFailure(t *testing.T) {
	c, _ := newProxy(t, http.StatusOK, `not json`)

	_, err := c.ByZip(context.Background(), "63101")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "decode reading")
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c, err := New(srv.URL, nil)
	require.NoError(t, err)

	_, err = c.ByCoords(context.Background(), "1", "2")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRequestFailed)
}

func TestClient_HonoursContext(t *testing.T) {
	c, reqs := newProxy(t, http.StatusOK, testhelpers.SampleReadingJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ByCity(ctx, "Bentonville")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *reqs)
}
