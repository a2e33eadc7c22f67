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

// AgentRepository implements campaign.AgentRepository on PostgreSQL
type AgentRepository struct {
	db *pgxpool.Pool
}

// NewAgentRepository creates an agent repository
func NewAgentRepository(db *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: db}
}

// GetByID loads an agent together with its phone numbers
func (r *AgentRepository) GetByID(ctx context.Context, id uuid.UUID) (*campaign.Agent, error) {
	query := `
		SELECT id, organization_id, name, COALESCE(voice_assistant_id, '')
		FROM agents
		WHERE id = $1`

	var a campaign.Agent
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.OrganizationID, &a.Name, &a.VoiceAssistantID)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrAgentNotFound
		}
		return nil, errors.NewInternalError("failed to get agent").WithCause(err)
	}

	phoneQuery := `
		SELECT id, COALESCE(external_id, ''), number, active
		FROM agent_phone_numbers
		WHERE agent_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, phoneQuery, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to list agent phone numbers").WithCause(err)
	}
	defer rows.Close()

	for rows.Next() {
		var p campaign.AgentPhoneNumber
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Number, &p.Active); err != nil {
			return nil, errors.NewInternalError("failed to scan agent phone number").WithCause(err)
		}
		a.PhoneNumbers = append(a.PhoneNumbers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternalError("failed to iterate agent phone numbers").WithCause(err)
	}
	return &a, nil
}
