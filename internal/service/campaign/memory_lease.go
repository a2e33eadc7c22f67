package campaign

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

type memoryLease struct {
	owner     string
	state     campaignpkg.RunState
	expiresAt time.Time
}

// MemoryLeaseStore is a process-local LeaseStore for single-instance
// deployments and tests
type MemoryLeaseStore struct {
	mu     sync.Mutex
	clock  values.Clock
	leases map[uuid.UUID]*memoryLease
}

// NewMemoryLeaseStore creates an empty store
func NewMemoryLeaseStore(clock values.Clock) *MemoryLeaseStore {
	if clock == nil {
		clock = values.RealClock{}
	}
	return &MemoryLeaseStore{clock: clock, leases: make(map[uuid.UUID]*memoryLease)}
}

func (s *MemoryLeaseStore) live(id uuid.UUID) *memoryLease {
	l, ok := s.leases[id]
	if !ok {
		return nil
	}
	if !s.clock.Now().Before(l.expiresAt) {
		delete(s.leases, id)
		return nil
	}
	return l
}

func (s *MemoryLeaseStore) Acquire(_ context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(id) != nil {
		return false, nil
	}
	s.leases[id] = &memoryLease{owner: owner, state: campaignpkg.RunStateRunning, expiresAt: s.clock.Now().Add(ttl)}
	return true, nil
}

func (s *MemoryLeaseStore) Refresh(_ context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.live(id)
	if l == nil || l.owner != owner {
		return false, nil
	}
	l.expiresAt = s.clock.Now().Add(ttl)
	return true, nil
}

func (s *MemoryLeaseStore) Release(_ context.Context, id uuid.UUID, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.leases[id]; ok && l.owner == owner {
		delete(s.leases, id)
	}
	return nil
}

func (s *MemoryLeaseStore) SetState(_ context.Context, id uuid.UUID, owner string, state campaignpkg.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l := s.live(id); l != nil && l.owner == owner {
		l.state = state
	}
	return nil
}

func (s *MemoryLeaseStore) State(_ context.Context, id uuid.UUID) (campaignpkg.RunState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.live(id)
	if l == nil {
		return "", false, nil
	}
	return l.state, true, nil
}
