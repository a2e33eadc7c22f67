package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// ContactRepository implements campaign.ContactRepository on PostgreSQL
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository creates a contact repository
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

// ListPending returns pending contacts oldest first
func (r *ContactRepository) ListPending(ctx context.Context, campaignID uuid.UUID) ([]*campaign.Contact, error) {
	query := `
		SELECT id, organization_id, campaign_id, name, phone_number, status,
		       call_attempts, last_called_at, created_at
		FROM contacts
		WHERE campaign_id = $1 AND status = 'pending'
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, campaignID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list pending contacts").WithCause(err)
	}
	defer rows.Close()

	var contacts []*campaign.Contact
	for rows.Next() {
		var c campaign.Contact
		if err := rows.Scan(
			&c.ID, &c.OrganizationID, &c.CampaignID, &c.Name, &c.PhoneNumber, &c.Status,
			&c.CallAttempts, &c.LastCalledAt, &c.CreatedAt,
		); err != nil {
			return nil, errors.NewInternalError("failed to scan contact").WithCause(err)
		}
		contacts = append(contacts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate contacts").WithCause(err)
	}
	return contacts, nil
}

// CountPending counts contacts still waiting to be dialed
func (r *ContactRepository) CountPending(ctx context.Context, campaignID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM contacts WHERE campaign_id = $1 AND status = 'pending'`

	var n int
	if err := r.db.QueryRow(ctx, query, campaignID).Scan(&n); err != nil {
		return 0, errors.NewInternalError("failed to count pending contacts").WithCause(err)
	}
	return n, nil
}

// UpdateStatus moves a contact to status. Only contacts whose current status
// may transition to status are updated; otherwise ErrContactState is returned.
func (r *ContactRepository) UpdateStatus(ctx context.Context, contactID uuid.UUID, status campaign.ContactStatus) error {
	query := `UPDATE contacts SET status = $2 WHERE id = $1 AND status = ANY($3)`

	sources := status.Sources()
	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	tag, err := r.db.Exec(ctx, query, contactID, string(status), from)
	if err != nil {
		return errors.NewInternalError("failed to update contact status").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrContactState
	}
	return nil
}

// MarkCalled records a dispatched call on a pending contact. A contact that
// is no longer pending is left untouched and ErrContactState is returned.
func (r *ContactRepository) MarkCalled(ctx context.Context, contactID uuid.UUID, at time.Time) error {
	query := `
		UPDATE contacts
		SET status = 'called', call_attempts = call_attempts + 1, last_called_at = $2
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.db.Exec(ctx, query, contactID, at.UTC())
	if err != nil {
		return errors.NewInternalError("failed to mark contact called").WithCause(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrContactState
	}
	return nil
}

// MarkDNCByPhone flags every contact of the organization with that phone
func (r *ContactRepository) MarkDNCByPhone(ctx context.Context, orgID uuid.UUID, phone string) (int64, error) {
	query := `
		UPDATE contacts SET status = 'dnc'
		WHERE organization_id = $1 AND phone_number = $2 AND status <> 'dnc'`

	tag, err := r.db.Exec(ctx, query, orgID, phone)
	if err != nil {
		return 0, errors.NewInternalError("failed to mark contacts dnc").WithCause(err)
	}
	return tag.RowsAffected(), nil
}
