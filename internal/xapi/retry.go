package xapi

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetrySender is a decorator that retries transient failures with
// exponential backoff and jitter.
type RetrySender struct {
	inner  Sender
	config RetryConfig
}

// WithRetry wraps a Sender with retry logic.
func WithRetry(s Sender, cfg RetryConfig) Sender {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetrySender{inner: s, config: cfg}
}

func (r *RetrySender) Send(ctx context.Context, statements ...Statement) error {
	var lastErr error

	for attempt := range r.config.MaxAttempts {
		err := r.inner.Send(ctx, statements...)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// No sleep after the last attempt.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A rejected statement stays rejected.
	var st *ErrStatus
	if errors.As(err, &st) {
		return st.Temporary()
	}

	// Unreachable LRS and other errors are treated as transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func (r *RetrySender) backoff(attempt int, err error) time.Duration {
	// Respect Retry-After on 429 and 503.
	var st *ErrStatus
	if errors.As(err, &st) && st.RetryAfter > 0 {
		return min(st.RetryAfter, r.config.MaxWait)
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
