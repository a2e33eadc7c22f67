package database

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// OrganizationRepository reads organization plans
type OrganizationRepository struct {
	db *pgxpool.Pool
}

// NewOrganizationRepository creates an organization repository
func NewOrganizationRepository(db *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetPlan returns the plan name of the organization
func (r *OrganizationRepository) GetPlan(ctx context.Context, orgID uuid.UUID) (string, error) {
	query := `SELECT plan FROM organizations WHERE id = $1`

	var plan string
	if err := r.db.QueryRow(ctx, query, orgID).Scan(&plan); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return "", errors.NewNotFoundError("organization")
		}
		return "", errors.NewInternalError("failed to get organization plan").WithCause(err)
	}
	return plan, nil
}
