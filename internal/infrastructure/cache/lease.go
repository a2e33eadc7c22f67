package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
)

// Lease hashes hold two fields: owner and state. Every mutation checks the
// owner token inside a script so a lost lease is never overwritten.
var (
	acquireScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'owner', ARGV[1], 'state', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

	refreshScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return 1
end
return 0
`)

	releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

	setStateScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  redis.call('HSET', KEYS[1], 'state', ARGV[2])
  return 1
end
return 0
`)
)

// LeaseStore keeps campaign run leases in redis so one campaign runs on at
// most one instance at a time
type LeaseStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLeaseStore creates a redis lease store
func NewLeaseStore(client *redis.Client, logger *zap.Logger) *LeaseStore {
	return &LeaseStore{client: client, logger: logger}
}

func leaseKey(campaignID uuid.UUID) string {
	return LeasePrefix + campaignID.String()
}

// Acquire takes the lease with state running
func (s *LeaseStore) Acquire(ctx context.Context, campaignID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	n, err := acquireScript.Run(ctx, s.client, []string{leaseKey(campaignID)},
		owner, string(campaignpkg.RunStateRunning), ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("lease acquire failed: %w", err)
	}
	return n == 1, nil
}

// Refresh extends the lease if owner still holds it
func (s *LeaseStore) Refresh(ctx context.Context, campaignID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, s.client, []string{leaseKey(campaignID)},
		owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("lease refresh failed: %w", err)
	}
	return n == 1, nil
}

// Release deletes the lease if owner still holds it
func (s *LeaseStore) Release(ctx context.Context, campaignID uuid.UUID, owner string) error {
	n, err := releaseScript.Run(ctx, s.client, []string{leaseKey(campaignID)}, owner).Int()
	if err != nil {
		return fmt.Errorf("lease release failed: %w", err)
	}
	if n == 0 {
		s.logger.Debug("Lease already gone at release",
			zap.String("campaign_id", campaignID.String()))
	}
	return nil
}

// SetState mirrors the runner's state onto the lease
func (s *LeaseStore) SetState(ctx context.Context, campaignID uuid.UUID, owner string, state campaignpkg.RunState) error {
	if _, err := setStateScript.Run(ctx, s.client, []string{leaseKey(campaignID)}, owner, string(state)).Int(); err != nil {
		return fmt.Errorf("lease state update failed: %w", err)
	}
	return nil
}

// State reads the mirrored run state
func (s *LeaseStore) State(ctx context.Context, campaignID uuid.UUID) (campaignpkg.RunState, bool, error) {
	v, err := s.client.HGet(ctx, leaseKey(campaignID), "state").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lease state read failed: %w", err)
	}

	state, ok := campaignpkg.ParseRunState(v)
	if !ok {
		return "", false, fmt.Errorf("lease holds unknown state %q", v)
	}
	return state, true, nil
}
