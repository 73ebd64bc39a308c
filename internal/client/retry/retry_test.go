package retry

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

func fastPolicy() Policy {
	p := DefaultPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	return p
}

func netErr() error {
	return &apierr.NetworkError{Method: http.MethodGet, Path: "/medicines", Attempts: 1, Err: errors.New("connection refused")}
}

func TestDo_ExhaustsAfterFourAttempts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewCoordinator(fastPolicy(), logging.Discard(), m)

	var calls atomic.Int32
	_, err := Do(context.Background(), c, http.MethodGet, true, func(context.Context) (string, error) {
		calls.Add(1)
		return "", netErr()
	})

	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())

	var ne *apierr.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 4, ne.Attempts)
	assert.Contains(t, err.Error(), "4 attempts")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Retries.WithLabelValues(http.MethodGet)))
}

func TestDo_SucceedsAfterTransientFailure(t *testing.T) {
	c := NewCoordinator(fastPolicy(), nil, nil)

	var calls int
	got, err := Do(context.Background(), c, http.MethodGet, true, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, netErr()
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryHTTPErrors(t *testing.T) {
	c := NewCoordinator(fastPolicy(), nil, nil)

	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		var calls int
		_, err := Do(context.Background(), c, http.MethodGet, true, func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, &apierr.HTTPError{Status: status}
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls, "status %d", status)
		assert.Equal(t, status, apierr.StatusOf(err))
	}
}

func TestDo_NonIdempotentRunsOnce(t *testing.T) {
	c := NewCoordinator(fastPolicy(), nil, nil)

	var calls int
	_, err := Do(context.Background(), c, http.MethodPost, false, func(context.Context) (int, error) {
		calls++
		return 0, netErr()
	})

	var ne *apierr.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, 1, ne.Attempts)
	assert.Equal(t, 1, calls)
}

func TestDo_StopsOnCancellation(t *testing.T) {
	p := DefaultPolicy()
	p.BaseDelay = time.Hour
	p.MaxDelay = time.Hour
	c := NewCoordinator(p, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	_, err := Do(ctx, c, http.MethodGet, true, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, netErr()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicy_BackoffIsCapped(t *testing.T) {
	p := Policy{MaxRetries: 10, BaseDelay: time.Second, MaxDelay: 2 * time.Second}
	b := p.Backoff()

	for i := 0; i < 10; i++ {
		d, stop := b.Next()
		require.False(t, stop)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
	_, stop := b.Next()
	assert.True(t, stop)
}
