package database

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// CampaignRepository implements campaign.Repository on PostgreSQL
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a campaign repository
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// GetByID loads a campaign with its persisted run stats
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Campaign, error) {
	query := `
		SELECT id, organization_id, agent_id, name, status,
		       calling_hours_start, calling_hours_end, max_calls_per_day,
		       schedule_start, schedule_end, stats, created_at, updated_at
		FROM campaigns
		WHERE id = $1`

	var (
		c     campaign.Campaign
		stats []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.OrganizationID, &c.AgentID, &c.Name, &c.Status,
		&c.CallingHours.Start, &c.CallingHours.End, &c.MaxCallsPerDay,
		&c.ScheduleStart, &c.ScheduleEnd, &stats, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrCampaignNotFound
		}
		return nil, errors.NewInternalError("failed to get campaign").WithCause(err)
	}

	c.Stats, err = campaign.DecodeRunStats(stats)
	if err != nil {
		return nil, errors.NewInternalError("failed to decode campaign stats").WithCause(err)
	}
	return &c, nil
}

// UpdateStatus sets the persisted lifecycle status
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status campaign.Status) error {
	query := `UPDATE campaigns SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return errors.NewInternalError("failed to update campaign status").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrCampaignNotFound
	}
	return nil
}

// UpdateStats replaces the stats document
func (r *CampaignRepository) UpdateStats(ctx context.Context, id uuid.UUID, stats campaign.RunStats) error {
	data, err := stats.Encode()
	if err != nil {
		return errors.NewInternalError("failed to encode campaign stats").WithCause(err)
	}

	query := `UPDATE campaigns SET stats = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, data)
	if err != nil {
		return errors.NewInternalError("failed to update campaign stats").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrCampaignNotFound
	}
	return nil
}
