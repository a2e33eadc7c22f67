package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for campaigns
type Repository interface {
	// GetByID returns errors.ErrCampaignNotFound when missing
	GetByID(ctx context.Context, id uuid.UUID) (*Campaign, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	UpdateStats(ctx context.Context, id uuid.UUID, stats RunStats) error
}

// ContactRepository defines persistence for campaign contacts
type ContactRepository interface {
	// ListPending returns pending contacts ordered by created_at ascending
	ListPending(ctx context.Context, campaignID uuid.UUID) ([]*Contact, error)

	CountPending(ctx context.Context, campaignID uuid.UUID) (int, error)

	UpdateStatus(ctx context.Context, contactID uuid.UUID, status ContactStatus) error

	// MarkCalled sets status called, increments call_attempts and stamps last_called_at
	MarkCalled(ctx context.Context, contactID uuid.UUID, at time.Time) error

	// MarkDNCByPhone flags every contact of the organization with that phone as dnc
	MarkDNCByPhone(ctx context.Context, orgID uuid.UUID, phone string) (int64, error)
}

// AgentRepository loads agents with their phone numbers
type AgentRepository interface {
	// GetByID returns errors.ErrAgentNotFound when missing
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)
}
