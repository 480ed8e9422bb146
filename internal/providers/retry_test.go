package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestRetryDoSucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	result, err := RetryDo(context.Background(), fastRetryConfig(), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", &HTTPError{Status: 503, Body: "overloaded"}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryDoGivesUpOnClientError(t *testing.T) {
	attempts := 0
	_, err := RetryDo(context.Background(), fastRetryConfig(), func() (string, error) {
		attempts++
		return "", &HTTPError{Status: 401, Body: "bad key"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx must not be retried")
}

func TestRetryDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	_, err := RetryDo(context.Background(), fastRetryConfig(), func() (string, error) {
		attempts++
		return "", &HTTPError{Status: 500, Body: "boom"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var httpErr *HTTPError
	assert.True(t, errors.As(err, &httpErr))
}

func TestRetryDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RetryDo(ctx, fastRetryConfig(), func() (string, error) {
		return "", &HTTPError{Status: 500, Body: "boom"}
	})
	assert.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 7*time.Second, ParseRetryAfter("7"))
	assert.Zero(t, ParseRetryAfter(""))
	assert.Zero(t, ParseRetryAfter("soon"))
}
