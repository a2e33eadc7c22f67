package dnc

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Entry represents a phone number on an organization's Do Not Call list.
// (OrganizationID, PhoneNumber) is unique.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	PhoneNumber    string    `json:"phone_number"`
	Source         Source    `json:"source"`
	Reason         string    `json:"reason"`
	AddedAt        time.Time `json:"added_at"`
}

// Source identifies where a DNC registration came from
type Source string

const (
	SourceNational      Source = "national"
	SourceInternal      Source = "internal"
	SourceVerbalRequest Source = "verbal_request"
)

func (s Source) String() string {
	return string(s)
}

// ParseSource validates a source string. Empty input defaults to internal.
func ParseSource(v string) (Source, error) {
	switch Source(v) {
	case "":
		return SourceInternal, nil
	case SourceNational, SourceInternal, SourceVerbalRequest:
		return Source(v), nil
	default:
		return "", errors.NewValidationError("INVALID_DNC_SOURCE", "dnc source must be national, internal or verbal_request")
	}
}

// NewEntry creates a DNC entry with a normalized phone number
func NewEntry(orgID uuid.UUID, phone string, source Source, reason string, now time.Time) (*Entry, error) {
	if orgID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_ORGANIZATION", "organization id cannot be empty")
	}

	p, err := values.NewPhoneNumber(phone)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_PHONE_NUMBER", "invalid phone number format").WithCause(err)
	}

	if _, err := ParseSource(string(source)); err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceInternal
	}

	return &Entry{
		ID:             uuid.New(),
		OrganizationID: orgID,
		PhoneNumber:    p.String(),
		Source:         source,
		Reason:         reason,
		AddedAt:        now.UTC(),
	}, nil
}
