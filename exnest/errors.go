package exnest

import (
	"errors"
	"fmt"
)

// SDKError is the base type embedded by all SDK errors.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error { return e.Cause }

// ConfigurationError indicates invalid client setup. Raised at construction
// and never retried.
type ConfigurationError struct {
	SDKError
}

// NetworkError indicates a connection-level failure where no response was
// received. Retryable.
type NetworkError struct {
	SDKError
}

// TimeoutError indicates a per-attempt deadline was exceeded. Retryable.
type TimeoutError struct {
	SDKError
}

// AbortError indicates the caller cancelled the request. Not retryable:
// re-attempting with a cancelled context can never succeed.
type AbortError struct {
	SDKError
}

// ParseError indicates a response body that could not be decoded into the
// expected shape. Not retryable.
type ParseError struct {
	SDKError
}

// APIError indicates an HTTP 4xx response other than 429. Not retryable.
type APIError struct {
	SDKError
	StatusCode int
	Code       string
}

// RateLimitError indicates an HTTP 429 response. Retryable only when
// Options.RetryRateLimit is set.
type RateLimitError struct {
	SDKError
	StatusCode int
	Code       string
	// RetryAfter is the server-suggested wait in seconds, when provided.
	RetryAfter *float64
}

// ServerError indicates an HTTP 5xx response. Retryable.
type ServerError struct {
	SDKError
	StatusCode int
	Code       string
}

// errorFromStatusCode maps a non-2xx HTTP response to a typed error.
func errorFromStatusCode(statusCode int, message, code string, retryAfter *float64) error {
	switch {
	case statusCode == 429:
		return &RateLimitError{
			SDKError:   SDKError{Message: message},
			StatusCode: statusCode,
			Code:       code,
			RetryAfter: retryAfter,
		}
	case statusCode >= 500:
		return &ServerError{
			SDKError:   SDKError{Message: message},
			StatusCode: statusCode,
			Code:       code,
		}
	default:
		return &APIError{
			SDKError:   SDKError{Message: message},
			StatusCode: statusCode,
			Code:       code,
		}
	}
}

// isRetryable classifies an error for the retry policy.
func isRetryable(err error, retryRateLimit bool) bool {
	var (
		netErr     *NetworkError
		timeoutErr *TimeoutError
		serverErr  *ServerError
		rateErr    *RateLimitError
	)
	switch {
	case errors.As(err, &netErr), errors.As(err, &timeoutErr), errors.As(err, &serverErr):
		return true
	case errors.As(err, &rateErr):
		return retryRateLimit
	}
	return false
}
