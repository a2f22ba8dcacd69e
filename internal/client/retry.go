package client

import (
	"context"
	"time"
)

const initialRetryDelay = 100 * time.Millisecond

// WithRetry retries fn with exponential backoff until it succeeds, the
// retry budget is spent, or the context is cancelled.
func WithRetry[T any](ctx context.Context, maxRetries uint, fn func() (T, error)) (T, error) {
	delay := initialRetryDelay
	var zero T
	for attempt := uint(0); ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= maxRetries {
			return zero, err
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// LatestBlockNumberWithRetry wraps Client.LatestBlockNumber with retries.
func LatestBlockNumberWithRetry(ctx context.Context, c *Client, maxRetries uint) (uint64, error) {
	return WithRetry(ctx, maxRetries, func() (uint64, error) {
		return c.LatestBlockNumber(ctx)
	})
}
