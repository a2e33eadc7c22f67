package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/call"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// CallRepository implements call.Repository on PostgreSQL
type CallRepository struct {
	db *pgxpool.Pool
}

// NewCallRepository creates a call repository
func NewCallRepository(db *pgxpool.Pool) *CallRepository {
	return &CallRepository{db: db}
}

// Create inserts a call row
func (r *CallRepository) Create(ctx context.Context, c *call.Call) error {
	query := `
		INSERT INTO calls (
			id, organization_id, agent_id, campaign_id, contact_id,
			external_call_id, direction, status, to_number, duration_seconds,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.OrganizationID, c.AgentID, nullUUID(c.CampaignID), nullUUID(c.ContactID),
		c.ExternalCallID, string(c.Direction), string(c.Status), c.ToNumber, c.DurationSeconds,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to create call").WithCause(err)
	}
	return nil
}

// SumDurationSince totals call seconds for an organization
func (r *CallRepository) SumDurationSince(ctx context.Context, orgID uuid.UUID, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(duration_seconds), 0)
		FROM calls
		WHERE organization_id = $1 AND created_at >= $2`

	var total int64
	if err := r.db.QueryRow(ctx, query, orgID, since.UTC()).Scan(&total); err != nil {
		return 0, errors.NewInternalError("failed to sum call duration").WithCause(err)
	}
	return total, nil
}

// CountForCampaignSince counts calls placed by a campaign
func (r *CallRepository) CountForCampaignSince(ctx context.Context, campaignID uuid.UUID, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM calls WHERE campaign_id = $1 AND created_at >= $2`

	var n int
	if err := r.db.QueryRow(ctx, query, campaignID, since.UTC()).Scan(&n); err != nil {
		return 0, errors.NewInternalError("failed to count campaign calls").WithCause(err)
	}
	return n, nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
