package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrorCategory labels weatherApiErrorsTotal and the proxy's failure logs.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryNetwork          ErrorCategory = "network"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryBadRequest       ErrorCategory = "bad_request"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx      ErrorCategory = "upstream_5xx"
	ErrorCategoryParsing          ErrorCategory = "parsing"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

// CategorizeError classifies a failure where no usable upstream reply was obtained.
// Typed errors are inspected first; the message is only a last resort for
// errors that arrive flattened to text.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrorCategoryParsing
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorCategoryTimeout
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"):
		return ErrorCategoryNetwork
	case strings.Contains(msg, "invalid character"), strings.Contains(msg, "unexpected end of json"):
		return ErrorCategoryParsing
	}
	return ErrorCategoryUnknown
}

// CategorizeStatus classifies a non-2xx provider status.
func CategorizeStatus(statusCode int) ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized:
		return ErrorCategoryInvalidAPIKey
	case statusCode == http.StatusNotFound:
		return ErrorCategoryLocationNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorCategoryRateLimited
	case statusCode >= http.StatusInternalServerError:
		return ErrorCategoryUpstream5xx
	case statusCode >= http.StatusBadRequest:
		return ErrorCategoryBadRequest
	}
	return ErrorCategoryUnknown
}
