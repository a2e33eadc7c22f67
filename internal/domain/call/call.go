package call

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Call is one outbound dispatch that reached the voice provider
type Call struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	AgentID        uuid.UUID `json:"agent_id"`
	CampaignID     uuid.UUID `json:"campaign_id"`
	ContactID      uuid.UUID `json:"contact_id"`
	ExternalCallID string    `json:"external_call_id"`
	Direction      Direction `json:"direction"`
	Status         Status    `json:"status"`
	ToNumber       string    `json:"to_number"`

	// DurationSeconds is filled in by result ingestion once the call ends
	DurationSeconds *int `json:"duration_seconds,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoAnswer   Status = "no_answer"
	StatusBusy       Status = "busy"
)

func (s Status) String() string {
	return string(s)
}

// ParseStatus maps a provider status onto a Status. Unknown values are queued:
// the provider accepted the call and later ingestion will correct it.
func ParseStatus(v string) Status {
	switch Status(v) {
	case StatusQueued, StatusRinging, StatusInProgress, StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy:
		return Status(v)
	case "in-progress":
		return StatusInProgress
	case "ended":
		return StatusCompleted
	default:
		return StatusQueued
	}
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

func (d Direction) String() string {
	return string(d)
}

// NewOutboundCall records a dispatch accepted by the provider
func NewOutboundCall(orgID, agentID, campaignID, contactID uuid.UUID, toNumber, externalCallID string, status Status, clock values.Clock) (*Call, error) {
	if orgID == uuid.Nil || campaignID == uuid.Nil || contactID == uuid.Nil {
		return nil, fmt.Errorf("organization, campaign and contact ids are required")
	}
	if externalCallID == "" {
		return nil, fmt.Errorf("external call id cannot be empty")
	}

	phone, err := values.NewPhoneNumber(toNumber)
	if err != nil {
		return nil, fmt.Errorf("invalid to number: %w", err)
	}

	now := clock.Now().UTC()
	return &Call{
		ID:             uuid.New(),
		OrganizationID: orgID,
		AgentID:        agentID,
		CampaignID:     campaignID,
		ContactID:      contactID,
		ExternalCallID: externalCallID,
		Direction:      DirectionOutbound,
		Status:         status,
		ToNumber:       phone.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
