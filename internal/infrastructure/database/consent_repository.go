package database

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// ConsentRepository implements consent.Repository on PostgreSQL
type ConsentRepository struct {
	db *pgxpool.Pool
}

// NewConsentRepository creates a consent repository
func NewConsentRepository(db *pgxpool.Pool) *ConsentRepository {
	return &ConsentRepository{db: db}
}

// Create appends a consent record
func (r *ConsentRepository) Create(ctx context.Context, c *consent.Consent) error {
	query := `
		INSERT INTO consents (
			id, organization_id, contact_phone, consent_type, consent_method,
			consent_text, timestamp, expires_at, revoked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		c.ID, c.OrganizationID, c.ContactPhone, string(c.Type), string(c.Method),
		c.Text, c.Timestamp, c.ExpiresAt, c.RevokedAt,
	)
	if err != nil {
		return errors.NewInternalError("failed to create consent").WithCause(err)
	}
	return nil
}

// FindActive returns the newest consent that is unrevoked and unexpired at now
func (r *ConsentRepository) FindActive(ctx context.Context, orgID uuid.UUID, phone string, now time.Time) (*consent.Consent, error) {
	query := `
		SELECT id, organization_id, contact_phone, consent_type, consent_method,
		       consent_text, timestamp, expires_at, revoked_at
		FROM consents
		WHERE organization_id = $1 AND contact_phone = $2
		  AND revoked_at IS NULL
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY timestamp DESC
		LIMIT 1`

	var c consent.Consent
	err := r.db.QueryRow(ctx, query, orgID, phone, now.UTC()).Scan(
		&c.ID, &c.OrganizationID, &c.ContactPhone, &c.Type, &c.Method,
		&c.Text, &c.Timestamp, &c.ExpiresAt, &c.RevokedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.NewInternalError("failed to find consent").WithCause(err)
	}
	return &c, nil
}

// RevokeActive stamps revoked_at on every unrevoked record for the phone
func (r *ConsentRepository) RevokeActive(ctx context.Context, orgID uuid.UUID, phone string, at time.Time) (int64, error) {
	query := `
		UPDATE consents SET revoked_at = $3
		WHERE organization_id = $1 AND contact_phone = $2 AND revoked_at IS NULL`

	tag, err := r.db.Exec(ctx, query, orgID, phone, at.UTC())
	if err != nil {
		return 0, errors.NewInternalError("failed to revoke consent").WithCause(err)
	}
	return tag.RowsAffected(), nil
}
