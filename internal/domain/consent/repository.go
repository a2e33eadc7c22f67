package consent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines persistence for consent records
type Repository interface {
	// Create appends a consent record
	Create(ctx context.Context, c *Consent) error

	// FindActive returns the most recent consent active at now, or nil, nil
	FindActive(ctx context.Context, orgID uuid.UUID, phone string, now time.Time) (*Consent, error)

	// RevokeActive stamps revoked_at on every unrevoked record for the phone
	// and returns how many were revoked
	RevokeActive(ctx context.Context, orgID uuid.UUID, phone string, at time.Time) (int64, error)
}
