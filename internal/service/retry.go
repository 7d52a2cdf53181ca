package service

import (
	"context"
	"fmt"
	"time"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/logger"
	"go.uber.org/zap"
)

// RetryPolicy bounds retries of idempotent provider calls.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy returns a policy with the given attempt count and a
// linear backoff step.
func DefaultRetryPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Backoff: 500 * time.Millisecond}
}

// retryCall runs fn until it succeeds, fails with a non-transient error, or
// the policy's attempts are used up. The last error is returned unchanged.
func retryCall[T any](ctx context.Context, p RetryPolicy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !apperr.IsRetryable(err) || i == attempts-1 {
			break
		}

		logger.Get().Warn("transient provider failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(p.Backoff * time.Duration(i+1)):
		}
	}
	return zero, lastErr
}
