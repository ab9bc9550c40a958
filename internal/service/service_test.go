package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/kjstillabower/weather-lookup/internal/client"
	"github.com/kjstillabower/weather-lookup/internal/testhelpers"
	"github.com/kjstillabower/weather-lookup/internal/traffic"
)

type mockWeatherClient struct {
	resp    client.Response
	err     error
	queries []client.Query
}

func (m *mockWeatherClient) Fetch(ctx context.Context, q client.Query) (client.Response, error) {
	m.queries = append(m.queries, q)
	return m.resp, m.err
}

func (m *mockWeatherClient) ValidateAPIKey(ctx context.Context) error {
	return nil
}

func TestWeatherService_Lookup_Success(t *testing.T) {
	mock := &mockWeatherClient{resp: client.Response{StatusCode: http.StatusOK, Body: []byte(testhelpers.SampleReadingJSON)}}
	tracker := traffic.New()
	svc := NewWeatherService(mock, tracker)

	got, err := svc.Lookup(context.Background(), client.ZipQuery("63101"))
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", got.StatusCode)
	}
	if string(got.Body) != testhelpers.SampleReadingJSON {
		t.Error("Lookup() body was modified")
	}
	if len(mock.queries) != 1 || mock.queries[0].Mode != client.ModeZip {
		t.Errorf("queries = %+v, want one zip query", mock.queries)
	}
	if errs, total := tracker.ErrorRate(time.Minute); errs != 0 || total != 1 {
		t.Errorf("tracker = (%d, %d), want (0, 1)", errs, total)
	}
}

func TestWeatherService_Lookup_UpstreamRejection(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantError   bool // counted as a service error by the tracker
	}{
		{"city not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, "city not found", false},
		{"invalid key", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key. Please see https://openweathermap.org/faq#error401 for more info."}`, "Invalid API key. Please see https://openweathermap.org/faq#error401 for more info.", true},
		{"no body", http.StatusBadGateway, ``, GenericFailureMessage, true},
		{"html body", http.StatusServiceUnavailable, `<html>down</html>`, GenericFailureMessage, true},
		{"empty message", http.StatusBadRequest, `{"cod":"400","message":"  "}`, GenericFailureMessage, false},
		{"throttled", http.StatusTooManyRequests, `{"cod":429,"message":"limit"}`, "limit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockWeatherClient{resp: client.Response{StatusCode: tt.status, Body: []byte(tt.body)}}
			tracker := traffic.New()
			svc := NewWeatherService(mock, tracker)

			_, err := svc.Lookup(context.Background(), client.CityQuery("nowhere"))
			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("error = %v, want *UpstreamError", err)
			}
			if upErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", upErr.StatusCode, tt.status)
			}
			if upErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", upErr.Message, tt.wantMessage)
			}
			errs, _ := tracker.ErrorRate(time.Minute)
			if (errs == 1) != tt.wantError {
				t.Errorf("tracker errors = %d, wantError %v", errs, tt.wantError)
			}
		})
	}
}

func TestWeatherService_Lookup_TransportFailure(t *testing.T) {
	cause := fmt.Errorf("%w: dial tcp: connection refused", client.ErrTransport)
	mock := &mockWeatherClient{err: cause}
	tracker := traffic.New()
	svc := NewWeatherService(mock, tracker)

	_, err := svc.Lookup(context.Background(), client.CoordsQuery("1", "2"))
	if !errors.Is(err, ErrLookupFailed) {
		t.Errorf("error = %v, want ErrLookupFailed", err)
	}
	if !errors.Is(err, client.ErrTransport) {
		t.Errorf("error = %v, want cause preserved", err)
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		t.Error("transport failure should not be an UpstreamError")
	}
	if errs, _ := tracker.ErrorRate(time.Minute); errs != 1 {
		t.Errorf("tracker errors = %d, want 1", errs)
	}
}

func TestWeatherService_Lookup_InvalidJSONOnSuccess(t *testing.T) {
	mock := &mockWeatherClient{resp: client.Response{StatusCode: http.StatusOK, Body: []byte(`{"name":`)}}
	svc := NewWeatherService(mock, nil)

	_, err := svc.Lookup(context.Background(), client.CityQuery("x"))
	if !errors.Is(err, ErrLookupFailed) {
		t.Errorf("error = %v, want ErrLookupFailed", err)
	}
}

func TestUpstreamMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"city not found"}`, "city not found"},
		{`{"message":""}`, GenericFailureMessage},
		{`{}`, GenericFailureMessage},
		{``, GenericFailureMessage},
		{`[1,2]`, GenericFailureMessage},
		{`{"message": 42}`, GenericFailureMessage},
	}
	for _, tt := range tests {
		if got := upstreamMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("upstreamMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestUpstreamError_Error(t *testing.T) {
	err := &UpstreamError{StatusCode: 404, Message: "city not found"}
	if got := err.Error(); got != "upstream rejected lookup: HTTP 404: city not found" {
		t.Errorf("Error() = %q", got)
	}
}
