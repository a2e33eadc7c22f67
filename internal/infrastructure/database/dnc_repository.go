package database

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// DNCRepository implements dnc.Repository on PostgreSQL
type DNCRepository struct {
	db *pgxpool.Pool
}

// NewDNCRepository creates a DNC repository
func NewDNCRepository(db *pgxpool.Pool) *DNCRepository {
	return &DNCRepository{db: db}
}

// Upsert inserts the entry or refreshes the existing row for the phone
func (r *DNCRepository) Upsert(ctx context.Context, entry *dnc.Entry) error {
	query := `
		INSERT INTO dnc_entries (id, organization_id, phone_number, source, reason, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, phone_number) DO UPDATE
		SET source = EXCLUDED.source, reason = EXCLUDED.reason, added_at = EXCLUDED.added_at
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.OrganizationID, entry.PhoneNumber,
		string(entry.Source), entry.Reason, entry.AddedAt,
	).Scan(&entry.ID)
	if err != nil {
		return errors.NewInternalError("failed to upsert dnc entry").WithCause(err)
	}
	return nil
}

// Delete removes the entry if present
func (r *DNCRepository) Delete(ctx context.Context, orgID uuid.UUID, phone string) error {
	query := `DELETE FROM dnc_entries WHERE organization_id = $1 AND phone_number = $2`

	if _, err := r.db.Exec(ctx, query, orgID, phone); err != nil {
		return errors.NewInternalError("failed to delete dnc entry").WithCause(err)
	}
	return nil
}

// Find returns the entry for the phone, or nil when it is not listed
func (r *DNCRepository) Find(ctx context.Context, orgID uuid.UUID, phone string) (*dnc.Entry, error) {
	query := `
		SELECT id, organization_id, phone_number, source, reason, added_at
		FROM dnc_entries
		WHERE organization_id = $1 AND phone_number = $2`

	var e dnc.Entry
	err := r.db.QueryRow(ctx, query, orgID, phone).Scan(
		&e.ID, &e.OrganizationID, &e.PhoneNumber, &e.Source, &e.Reason, &e.AddedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewInternalError("failed to find dnc entry").WithCause(err)
	}
	return &e, nil
}

// FindByPhones returns the listed entries among phones keyed by phone
func (r *DNCRepository) FindByPhones(ctx context.Context, orgID uuid.UUID, phones []string) (map[string]*dnc.Entry, error) {
	result := make(map[string]*dnc.Entry)
	if len(phones) == 0 {
		return result, nil
	}

	query := `
		SELECT id, organization_id, phone_number, source, reason, added_at
		FROM dnc_entries
		WHERE organization_id = $1 AND phone_number = ANY($2)`

	rows, err := r.db.Query(ctx, query, orgID, phones)
	if err != nil {
		return nil, errors.NewInternalError("failed to query dnc entries").WithCause(err)
	}
	defer rows.Close()

	for rows.Next() {
		var e dnc.Entry
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.PhoneNumber, &e.Source, &e.Reason, &e.AddedAt); err != nil {
			return nil, errors.NewInternalError("failed to scan dnc entry").WithCause(err)
		}
		result[e.PhoneNumber] = &e
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate dnc entries").WithCause(err)
	}
	return result, nil
}
