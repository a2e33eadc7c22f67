package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/audit"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// AuditRepository implements audit.Store on PostgreSQL
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates an audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes a batch of events in one round trip
func (r *AuditRepository) Append(ctx context.Context, events []*audit.ComplianceEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		INSERT INTO compliance_audit_events (
			id, organization_id, campaign_id, contact_id, phone, kind, reason, occurred_at, event_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(query,
			e.ID, e.OrganizationID, e.CampaignID, e.ContactID,
			e.Phone, string(e.Kind), e.Reason, e.OccurredAt, e.EventHash,
		)
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return errors.NewInternalError("failed to append audit events").WithCause(err)
	}
	return nil
}
