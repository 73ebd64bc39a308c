// Package retry re-runs idempotent calls that failed before any HTTP
// response arrived.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/pharmalink/internal/client/apierr"
	"github.com/dmitrijs2005/pharmalink/internal/client/metrics"
	"github.com/dmitrijs2005/pharmalink/internal/logging"
)

// Policy bounds the retry loop. MaxRetries counts retries, so the total
// number of attempts is MaxRetries+1.
type Policy struct {
	MaxRetries    uint64
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	JitterPercent uint64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    3,
		BaseDelay:     300 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		JitterPercent: 10,
	}
}

// Backoff returns a fresh backoff sequence. Backoffs are stateful and must
// not be shared between calls.
func (p Policy) Backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	if p.JitterPercent > 0 {
		b = retry.WithJitterPercent(p.JitterPercent, b)
	}
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithMaxRetries(p.MaxRetries, b)
}

type Coordinator struct {
	policy  Policy
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewCoordinator(policy Policy, logger logging.Logger, m *metrics.Metrics) *Coordinator {
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultPolicy().BaseDelay
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Coordinator{policy: policy, logger: logger, metrics: m}
}

func (c *Coordinator) Policy() Policy { return c.policy }

// Do runs fn once, and again after a backoff while it fails with
// *apierr.NetworkError and idempotent is true. HTTP error responses are
// returned as is. When the budget runs out the last NetworkError is
// returned with Attempts set to the number of attempts made. A cancelled
// ctx stops the loop with the context error.
func Do[T any](ctx context.Context, c *Coordinator, method string, idempotent bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		out      T
		attempts int
	)

	if !idempotent {
		return fn(ctx)
	}

	err := retry.Do(ctx, c.policy.Backoff(), func(ctx context.Context) error {
		attempts++
		v, err := fn(ctx)
		if err == nil {
			out = v
			return nil
		}

		var ne *apierr.NetworkError
		if !errors.As(err, &ne) {
			return err
		}
		if uint64(attempts) <= c.policy.MaxRetries {
			c.logger.Warn(ctx, "request failed, retrying",
				"method", ne.Method, "path", ne.Path, "attempt", attempts, "err", ne.Err)
			c.metrics.IncRetry(method)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return out, nil
	}

	var ne *apierr.NetworkError
	if errors.As(err, &ne) && attempts > 1 {
		exhausted := *ne
		exhausted.Attempts = attempts
		c.logger.Error(ctx, "request failed after retries",
			"method", ne.Method, "path", ne.Path, "attempts", attempts, "err", ne.Err)
		return out, &exhausted
	}
	return out, err
}
