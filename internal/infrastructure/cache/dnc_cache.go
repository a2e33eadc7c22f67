package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
)

// DNCCacheMetrics are the cache's hit counters
type DNCCacheMetrics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// An invalidation leaves a hold key for negativeTTL. Set is a no-op while the
// hold exists, so a lookup that read the database before a concurrent list
// change cannot cache its stale result after the invalidation.
var (
	setScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

	invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], '1', 'PX', ARGV[1])
return 1
`)
)

// DNCCache caches DNC lookups per organization and phone. Blocked results use
// positiveTTL; clean results use the shorter negativeTTL so newly listed
// numbers are picked up quickly even without invalidation.
type DNCCache struct {
	client      *redis.Client
	logger      *zap.Logger
	positiveTTL time.Duration
	negativeTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewDNCCache creates a cache. A zero positiveTTL uses DNCPositiveTTL.
func NewDNCCache(client *redis.Client, positiveTTL time.Duration, logger *zap.Logger) *DNCCache {
	if positiveTTL <= 0 {
		positiveTTL = DNCPositiveTTL
	}
	negativeTTL := DNCNegativeTTL
	if negativeTTL > positiveTTL {
		negativeTTL = positiveTTL
	}
	return &DNCCache{
		client:      client,
		logger:      logger,
		positiveTTL: positiveTTL,
		negativeTTL: negativeTTL,
	}
}

func dncKey(orgID uuid.UUID, phone string) string {
	return DNCPrefix + orgID.String() + ":" + phone
}

func dncHoldKey(orgID uuid.UUID, phone string) string {
	return dncKey(orgID, phone) + ":hold"
}

// Get returns the cached result. The second result is false on a miss.
func (c *DNCCache) Get(ctx context.Context, orgID uuid.UUID, phone string) (dnc.CheckResult, bool, error) {
	data, err := c.client.Get(ctx, dncKey(orgID, phone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return dnc.CheckResult{}, false, nil
		}
		c.errs.Add(1)
		return dnc.CheckResult{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result dnc.CheckResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.errs.Add(1)
		c.logger.Warn("Discarding corrupt DNC cache entry",
			zap.String("org_id", orgID.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, dncKey(orgID, phone)).Err()
		return dnc.CheckResult{}, false, nil
	}

	c.hits.Add(1)
	return result, true, nil
}

// Set stores a result with the TTL for its outcome. It stores nothing while an
// invalidation hold is active.
func (c *DNCCache) Set(ctx context.Context, orgID uuid.UUID, phone string, result dnc.CheckResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	ttl := c.negativeTTL
	if result.IsBlocked {
		ttl = c.positiveTTL
	}

	keys := []string{dncKey(orgID, phone), dncHoldKey(orgID, phone)}
	if err := setScript.Run(ctx, c.client, keys, data, ttl.Milliseconds()).Err(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate removes the cached result for phone and holds off re-caching it
// for negativeTTL
func (c *DNCCache) Invalidate(ctx context.Context, orgID uuid.UUID, phone string) error {
	keys := []string{dncKey(orgID, phone), dncHoldKey(orgID, phone)}
	if err := invalidateScript.Run(ctx, c.client, keys, c.negativeTTL.Milliseconds()).Err(); err != nil {
		c.errs.Add(1)
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Metrics returns a snapshot of the hit counters
func (c *DNCCache) Metrics() DNCCacheMetrics {
	return DNCCacheMetrics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errs.Load(),
	}
}
