package scraper

import (
	"context"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Savio629/nregascan/internal/common"
)

// RetryPolicy wraps navigation steps with bounded retry and randomized
// backoff. It is the single place that decides retryable vs fatal: after
// MaxRetries consecutive failures the last error surfaces to the caller
// as a NavigationError.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration
	logger     arbor.ILogger
}

// NewRetryPolicy creates a retry policy from configuration
func NewRetryPolicy(cfg common.RetryConfig, logger arbor.ILogger) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Duration(cfg.BaseDelay),
		MaxJitter:  time.Duration(cfg.MaxJitter),
		logger:     logger,
	}
}

// Backoff returns the wait before the next attempt: the base delay plus a
// bounded random jitter, so retries do not hit the portal on a fixed
// interval.
func (p *RetryPolicy) Backoff() time.Duration {
	delay := p.BaseDelay
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}

// Attempt runs op up to MaxRetries times, waiting a jittered delay between
// attempts. The wait honors context cancellation; cancellation is returned
// as-is rather than wrapped as a NavigationError.
func (p *RetryPolicy) Attempt(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < p.MaxRetries {
			backoff := p.Backoff()
			p.logger.Debug().
				Str("op", op).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	p.logger.Warn().
		Str("op", op).
		Int("max_retries", p.MaxRetries).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return &NavigationError{Op: op, Attempts: p.MaxRetries, Cause: lastErr}
}
