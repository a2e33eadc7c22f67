package cache

import (
	"context"
	"time"
)

// RateLimiter counts requests per key over a sliding window
type RateLimiter interface {
	// Allow records a request and reports whether it fits under limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Count returns the number of requests in the current window
	Count(ctx context.Context, key string, window time.Duration) (int, error)

	// Reset clears the counter for a key
	Reset(ctx context.Context, key string) error

	// Remaining returns how many requests are left in the current window
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// Key prefixes for consistent cache key naming
const (
	DNCPrefix       = "dialer:dnc:"
	LeasePrefix     = "dialer:lease:"
	RateLimitPrefix = "dialer:ratelimit:"
)

// ControlChannel is the pub/sub channel carrying campaign control signals
const ControlChannel = "dialer:control"

// Common TTL values
const (
	DNCPositiveTTL = 5 * time.Minute
	DNCNegativeTTL = time.Minute
)
