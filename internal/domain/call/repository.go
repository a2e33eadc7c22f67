package call

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for call rows
type Repository interface {
	// Create inserts a call row
	Create(ctx context.Context, c *Call) error

	// SumDurationSince totals call seconds for an organization since the given instant
	SumDurationSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error)

	// CountForCampaignSince counts calls placed by a campaign since the given instant
	CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int, error)
}
