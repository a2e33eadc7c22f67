package consent

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Consent is one recorded permission to call a phone number. Rows are
// append-only: revocation stamps RevokedAt and never deletes history.
type Consent struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	ContactPhone   string     `json:"contact_phone"`
	Type           Type       `json:"consent_type"`
	Method         Method     `json:"consent_method"`
	Text           string     `json:"consent_text,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// Type is the legal basis of the consent
type Type string

const (
	// TypePEWC is prior express written consent
	TypePEWC Type = "PEWC"
	// TypeExpress is prior express consent
	TypeExpress Type = "EXPRESS"
	// TypeEBR is an established business relationship
	TypeEBR Type = "EBR"
)

func (t Type) String() string {
	return string(t)
}

// Method is how the consent was captured
type Method string

const (
	MethodWebForm Method = "web_form"
	MethodVerbal  Method = "verbal"
	MethodPaper   Method = "paper"
)

func (m Method) String() string {
	return string(m)
}

// Status is derived from the timestamps, it is never stored
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// ParseType parses a consent type case-insensitively
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypePEWC:
		return TypePEWC, nil
	case TypeExpress:
		return TypeExpress, nil
	case TypeEBR:
		return TypeEBR, nil
	default:
		return "", errors.NewValidationError("INVALID_CONSENT_TYPE", "consent type must be PEWC, EXPRESS or EBR")
	}
}

// ParseMethod parses a capture method case-insensitively
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodWebForm:
		return MethodWebForm, nil
	case MethodVerbal:
		return MethodVerbal, nil
	case MethodPaper:
		return MethodPaper, nil
	default:
		return "", errors.NewValidationError("INVALID_CONSENT_METHOD", "consent method must be web_form, verbal or paper")
	}
}

// NewConsent creates a consent record granted at now
func NewConsent(orgID uuid.UUID, phone string, t Type, m Method, text string, expiresAt *time.Time, now time.Time) (*Consent, error) {
	if orgID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_ORGANIZATION", "organization id cannot be empty")
	}

	p, err := values.NewPhoneNumber(phone)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_PHONE_NUMBER", "invalid phone number format").WithCause(err)
	}

	if _, err := ParseType(string(t)); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(m)); err != nil {
		return nil, err
	}

	if expiresAt != nil && !expiresAt.After(now) {
		return nil, errors.NewValidationError("INVALID_EXPIRATION", "expiration must be in the future")
	}

	return &Consent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ContactPhone:   p.String(),
		Type:           t,
		Method:         m,
		Text:           text,
		Timestamp:      now.UTC(),
		ExpiresAt:      expiresAt,
	}, nil
}

// IsActive reports whether the consent is unrevoked and unexpired at now
func (c *Consent) IsActive(now time.Time) bool {
	return c.StatusAt(now) == StatusActive
}

// StatusAt derives the consent status at the given instant
func (c *Consent) StatusAt(now time.Time) Status {
	if c.RevokedAt != nil {
		return StatusRevoked
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusActive
}

// Revoke stamps the revocation time. Revoking twice keeps the first time.
func (c *Consent) Revoke(at time.Time) {
	if c.RevokedAt != nil {
		return
	}
	t := at.UTC()
	c.RevokedAt = &t
}
