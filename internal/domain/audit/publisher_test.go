package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memoryStore struct {
	mu     sync.Mutex
	events []*ComplianceEvent
	err    error
}

func (s *memoryStore) Append(_ context.Context, events []*ComplianceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newEvent(t *testing.T) *ComplianceEvent {
	e, err := NewComplianceEvent(uuid.New(), KindCallingHoursBlock, "+12125550100", "too late", time.Now())
	require.NoError(t, err)
	return e
}

func TestPublisher_FlushesOnBatchTimeout(t *testing.T) {
	store := &memoryStore{}
	p := NewPublisher(zaptest.NewLogger(t), store, PublisherConfig{BatchSize: 100, BatchTimeout: 10 * time.Millisecond})
	defer p.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Record(context.Background(), newEvent(t)))
	}

	assert.Eventually(t, func() bool { return store.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(3), p.Metrics().EventsPublished)
}

func TestPublisher_CloseDrainsQueue(t *testing.T) {
	store := &memoryStore{}
	p := NewPublisher(zaptest.NewLogger(t), store, PublisherConfig{BatchSize: 100, BatchTimeout: time.Hour})

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Record(context.Background(), newEvent(t)))
	}
	require.NoError(t, p.Close())

	assert.Equal(t, 5, store.count())

	// closed publisher drops silently
	require.NoError(t, p.Record(context.Background(), newEvent(t)))
	assert.Equal(t, int64(1), p.Metrics().EventsDropped)
}

func TestPublisher_StoreFailureIsCounted(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	p := NewPublisher(zaptest.NewLogger(t), store, PublisherConfig{BatchSize: 1, BatchTimeout: time.Hour})

	require.NoError(t, p.Record(context.Background(), newEvent(t)))
	require.NoError(t, p.Close())

	assert.Equal(t, int64(1), p.Metrics().BatchesFailed)
	assert.Equal(t, int64(0), p.Metrics().EventsPublished)
}
