package dnc

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence for DNC entries. Phones are passed normalized.
type Repository interface {
	// Upsert inserts the entry or refreshes source, reason and added_at of the existing row
	Upsert(ctx context.Context, entry *Entry) error

	// Delete removes the entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, orgID uuid.UUID, phone string) error

	// Find returns nil, nil when the number is not listed
	Find(ctx context.Context, orgID uuid.UUID, phone string) (*Entry, error)

	// FindByPhones returns listed entries keyed by phone
	FindByPhones(ctx context.Context, orgID uuid.UUID, phones []string) (map[string]*Entry, error)
}
