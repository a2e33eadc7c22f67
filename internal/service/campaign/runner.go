package campaign

import (
	"sync"

	"github.com/google/uuid"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
)

// runner is the in-process handle of one executing campaign. Control actions
// are applied on delivery; the loop observes them at iteration boundaries and
// wake interrupts a pacing wait.
type runner struct {
	campaignID uuid.UUID
	owner      string

	mu        sync.Mutex
	state     campaignpkg.RunState
	leaseGone bool
	wake      chan struct{}
}

func newRunner(campaignID uuid.UUID, owner string) *runner {
	return &runner{
		campaignID: campaignID,
		owner:      owner,
		state:      campaignpkg.RunStateRunning,
		wake:       make(chan struct{}, 1),
	}
}

func (r *runner) State() campaignpkg.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *runner) hasLease() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.leaseGone
}

// loseLease records that another owner holds the lease and interrupts any
// pacing wait
func (r *runner) loseLease() {
	r.mu.Lock()
	r.leaseGone = true
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// apply transitions the runner and returns the resulting state. A stopped
// runner stays stopped.
func (r *runner) apply(a Action) campaignpkg.RunState {
	r.mu.Lock()
	switch {
	case r.state == campaignpkg.RunStateStopped:
	case a == ActionPause:
		r.state = campaignpkg.RunStatePaused
	case a == ActionResume:
		r.state = campaignpkg.RunStateRunning
	case a == ActionStop:
		r.state = campaignpkg.RunStateStopped
	}
	state := r.state
	r.mu.Unlock()

	if state != campaignpkg.RunStateRunning {
		select {
		case r.wake <- struct{}{}:
		default:
		}
	}
	return state
}
