package exnest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSleeper records requested delays instead of sleeping.
type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

func testPolicy(maxAttempts int, sleeper Sleeper, retryRateLimit bool) retryPolicy {
	return retryPolicy{
		maxAttempts:    maxAttempts,
		delay:          250 * time.Millisecond,
		retryRateLimit: retryRateLimit,
		sleeper:        sleeper,
		logger:         zap.NewNop(),
	}
}

func TestRetryPolicySucceedsFirstAttempt(t *testing.T) {
	sleeper := &fakeSleeper{}
	attempts := 0

	resp, err := testPolicy(4, sleeper, false).run(func(int) (*Response, error) {
		attempts++
		return &Response{Success: true}, nil
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeper.slept)
}

func TestRetryPolicyRetriesRetryableUntilSuccess(t *testing.T) {
	sleeper := &fakeSleeper{}
	attempts := 0

	resp, err := testPolicy(4, sleeper, false).run(func(int) (*Response, error) {
		attempts++
		if attempts < 3 {
			return nil, &ServerError{SDKError: SDKError{Message: "boom"}, StatusCode: 500}
		}
		return &Response{Success: true}, nil
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, attempts)
	require.Len(t, sleeper.slept, 2)
	for _, d := range sleeper.slept {
		assert.GreaterOrEqual(t, d, 250*time.Millisecond)
	}
}

func TestRetryPolicyExhaustsAndSurfacesLastError(t *testing.T) {
	sleeper := &fakeSleeper{}
	attempts := 0

	_, err := testPolicy(4, sleeper, false).run(func(int) (*Response, error) {
		attempts++
		return nil, &NetworkError{SDKError: SDKError{Message: "connection refused"}}
	})

	require.Error(t, err)
	// retries=3 means exactly 4 attempts
	assert.Equal(t, 4, attempts)
	assert.Len(t, sleeper.slept, 3)

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestRetryPolicyNonRetryableFailsImmediately(t *testing.T) {
	sleeper := &fakeSleeper{}
	attempts := 0

	_, err := testPolicy(4, sleeper, false).run(func(int) (*Response, error) {
		attempts++
		return nil, &APIError{SDKError: SDKError{Message: "unauthorized"}, StatusCode: 401}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sleeper.slept)
}

func TestRetryPolicyRateLimitNotRetriedByDefault(t *testing.T) {
	attempts := 0

	_, err := testPolicy(4, &fakeSleeper{}, false).run(func(int) (*Response, error) {
		attempts++
		return nil, &RateLimitError{SDKError: SDKError{Message: "slow down"}, StatusCode: 429}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicyRateLimitRetriedWhenEnabled(t *testing.T) {
	attempts := 0

	resp, err := testPolicy(4, &fakeSleeper{}, true).run(func(int) (*Response, error) {
		attempts++
		if attempts == 1 {
			return nil, &RateLimitError{SDKError: SDKError{Message: "slow down"}, StatusCode: 429}
		}
		return &Response{Success: true}, nil
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicyTimeoutIsRetryable(t *testing.T) {
	attempts := 0

	resp, err := testPolicy(2, &fakeSleeper{}, false).run(func(int) (*Response, error) {
		attempts++
		if attempts == 1 {
			return nil, &TimeoutError{SDKError: SDKError{Message: "deadline exceeded"}}
		}
		return &Response{Success: true}, nil
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryableClassification(t *testing.T) {
	assert.True(t, isRetryable(&NetworkError{SDKError: SDKError{Message: "x"}}, false))
	assert.True(t, isRetryable(&TimeoutError{SDKError: SDKError{Message: "x"}}, false))
	assert.True(t, isRetryable(&ServerError{SDKError: SDKError{Message: "x"}, StatusCode: 503}, false))
	assert.False(t, isRetryable(&APIError{SDKError: SDKError{Message: "x"}, StatusCode: 400}, false))
	assert.False(t, isRetryable(&RateLimitError{SDKError: SDKError{Message: "x"}, StatusCode: 429}, false))
	assert.True(t, isRetryable(&RateLimitError{SDKError: SDKError{Message: "x"}, StatusCode: 429}, true))
	assert.False(t, isRetryable(&AbortError{SDKError: SDKError{Message: "x"}}, false))
	assert.False(t, isRetryable(&ConfigurationError{SDKError: SDKError{Message: "x"}}, false))
	assert.False(t, isRetryable(&ParseError{SDKError: SDKError{Message: "x"}}, false))
}

func TestErrorFromStatusCode(t *testing.T) {
	retryAfter := 10.0

	err := errorFromStatusCode(429, "rate limited", "rate_limit", &retryAfter)
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 429, rateErr.StatusCode)
	require.NotNil(t, rateErr.RetryAfter)
	assert.Equal(t, 10.0, *rateErr.RetryAfter)

	err = errorFromStatusCode(503, "unavailable", "", nil)
	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 503, serverErr.StatusCode)

	err = errorFromStatusCode(404, "not found", "not_found", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
}
