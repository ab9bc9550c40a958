package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
)

func jsonSyntaxError(t *testing.T) error {
	t.Helper()
	var v map[string]any
	err := json.Unmarshal([]byte(`{"name":}`), &v)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	return err
}

func TestCategorizeError(t *testing.T) {
	dnsMiss := &net.DNSError{Err: "no such host", Name: "api.invalid", IsNotFound: true}
	dnsSlow := &net.DNSError{Err: "i/o timeout", Name: "api.invalid", IsTimeout: true}
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled", context.Canceled, ErrorCategoryTimeout},
		{"transport wrapping deadline", fmt.Errorf("%w: %w", ErrTransport, context.DeadlineExceeded), ErrorCategoryTimeout},
		{"invalid key", fmt.Errorf("startup: %w", ErrInvalidAPIKey), ErrorCategoryInvalidAPIKey},
		{"dns not found", fmt.Errorf("%w: %w", ErrTransport, dnsMiss), ErrorCategoryNetwork},
		{"dns timeout", dnsSlow, ErrorCategoryTimeout},
		{"dial refused inside url error", &url.Error{Op: "Get", URL: "http://x", Err: refused}, ErrorCategoryNetwork},
		{"json syntax", fmt.Errorf("decode: %w", jsonSyntaxError(t)), ErrorCategoryParsing},
		{"flattened client timeout", errors.New("Client.Timeout exceeded while awaiting headers"), ErrorCategoryTimeout},
		{"flattened refused", errors.New("dial tcp 127.0.0.1:1: connection refused"), ErrorCategoryNetwork},
		{"flattened json", errors.New("invalid character 'x' looking for beginning of value"), ErrorCategoryParsing},
		{"unknown", errors.New("something else"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCategorizeStatus(t *testing.T) {
	tests := map[int]ErrorCategory{
		http.StatusUnauthorized:        ErrorCategoryInvalidAPIKey,
		http.StatusNotFound:            ErrorCategoryLocationNotFound,
		http.StatusTooManyRequests:     ErrorCategoryRateLimited,
		http.StatusBadRequest:          ErrorCategoryBadRequest,
		http.StatusForbidden:           ErrorCategoryBadRequest,
		http.StatusInternalServerError: ErrorCategoryUpstream5xx,
		http.StatusGatewayTimeout:      ErrorCategoryUpstream5xx,
		http.StatusMultipleChoices:     ErrorCategoryUnknown,
	}
	for status, want := range tests {
		if got := CategorizeStatus(status); got != want {
			t.Errorf("CategorizeStatus(%d) = %q, want %q", status, got, want)
		}
	}
}
