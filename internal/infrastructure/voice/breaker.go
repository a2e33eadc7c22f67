package voice

import (
	"sync"
	"time"
)

// BreakerState is the circuit state of the provider breaker
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// breaker opens after a run of consecutive failures and lets one probe
// through once the cooldown has passed
type breaker struct {
	mu               sync.Mutex
	state            BreakerState
	consecutiveFails int
	threshold        int
	cooldown         time.Duration
	nextProbeAt      time.Time
	probeInFlight    bool
	now              func() time.Time
	onStateChange    func(from, to BreakerState)
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// acquire reports whether a request may be sent
func (b *breaker) acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().After(b.nextProbeAt) && !b.probeInFlight {
			b.transition(BreakerHalfOpen)
			b.probeInFlight = true
			return true
		}
		return false
	case BreakerHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	default:
		return true
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFails = 0
	b.probeInFlight = false
	b.transition(BreakerClosed)
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.probeInFlight = false
		b.nextProbeAt = b.now().Add(b.cooldown)
		b.transition(BreakerOpen)
		return
	}

	b.consecutiveFails++
	if b.consecutiveFails >= b.threshold {
		b.nextProbeAt = b.now().Add(b.cooldown)
		b.transition(BreakerOpen)
	}
}

// release gives back a probe slot for a request that never reached the provider
func (b *breaker) release() {
	b.mu.Lock()
	b.probeInFlight = false
	b.mu.Unlock()
}

func (b *breaker) current() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition must be called with mu held
func (b *breaker) transition(to BreakerState) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
