package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/geo"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
	"github.com/davidleathers/campaign-dialer/internal/service/dialer"
	"github.com/davidleathers/campaign-dialer/internal/service/usage"
)

// ComplianceChecker is the part of the compliance gate the executor consults
type ComplianceChecker interface {
	CheckDNC(ctx context.Context, phone string, orgID uuid.UUID) (dnc.CheckResult, error)
	CheckCallingHoursWithin(state, timezone string, window values.DailyWindow) compliance.HoursResult
	RecordEvent(ctx context.Context, event *audit.ComplianceEvent)
}

// UsageChecker reports whether an organization has minutes left
type UsageChecker interface {
	CheckUsageLimits(ctx context.Context, orgID uuid.UUID) (usage.Result, error)
}

// CallDispatcher places one call
type CallDispatcher interface {
	PlaceCall(ctx context.Context, contact *campaignpkg.Contact, camp *campaignpkg.Campaign, agent *campaignpkg.Agent) (dialer.CallResult, error)
}

// CallCounter counts calls a campaign already placed
type CallCounter interface {
	CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int, error)
}

// GeoResolver maps a phone number to a jurisdiction
type GeoResolver interface {
	Resolve(phone string) geo.Location
}

// LeaseStore records which instance runs a campaign. Only the owner token
// that acquired a lease may refresh, update or release it.
type LeaseStore interface {
	// Acquire takes the lease with state running. It returns false when another owner holds it.
	Acquire(ctx context.Context, campaignID uuid.UUID, owner string, ttl time.Duration) (bool, error)

	// Refresh extends the lease. It returns false when the lease was lost.
	Refresh(ctx context.Context, campaignID uuid.UUID, owner string, ttl time.Duration) (bool, error)

	Release(ctx context.Context, campaignID uuid.UUID, owner string) error

	SetState(ctx context.Context, campaignID uuid.UUID, owner string, state campaignpkg.RunState) error

	// State returns the mirrored run state, false when no lease exists
	State(ctx context.Context, campaignID uuid.UUID) (campaignpkg.RunState, bool, error)
}

// Action is a control request for a running campaign
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionStop   Action = "stop"
)

// Signal addresses an action to a campaign on whichever instance runs it
type Signal struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Action     Action    `json:"action"`
}

// ControlBus fans control signals out to every instance
type ControlBus interface {
	Publish(ctx context.Context, sig Signal) error

	// Subscribe delivers signals to handler until ctx is done
	Subscribe(ctx context.Context, handler func(Signal)) error
}

// Metrics records executor outcomes
type Metrics interface {
	RunStarted(ctx context.Context)
	RunFinished(ctx context.Context, haltReason string, duration time.Duration)
	ContactProcessed(ctx context.Context, outcome, category string)
}

type noopMetrics struct{}

func (noopMetrics) RunStarted(context.Context) {}
func (noopMetrics) RunFinished(context.Context, string, time.Duration) {}
func (noopMetrics) ContactProcessed(context.Context, string, string) {}
