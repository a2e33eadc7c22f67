// Package audit records compliance decisions made while dialing.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

// Kind classifies a compliance event
type Kind string

const (
	KindDNCBlock          Kind = "dnc_block"
	KindCallingHoursBlock Kind = "calling_hours_block"
	KindOptOut            Kind = "opt_out"
)

func (k Kind) String() string {
	return string(k)
}

// ComplianceEvent is an immutable record of a blocked dial or an opt-out
type ComplianceEvent struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CampaignID     *uuid.UUID `json:"campaign_id,omitempty"`
	ContactID      *uuid.UUID `json:"contact_id,omitempty"`
	Phone          string     `json:"phone"`
	Kind           Kind       `json:"kind"`
	Reason         string     `json:"reason"`
	OccurredAt     time.Time  `json:"occurred_at"`

	// EventHash is a SHA-256 over the fields above, used to detect tampering
	EventHash string `json:"event_hash"`
}

// NewComplianceEvent creates an event and seals its hash
func NewComplianceEvent(orgID uuid.UUID, kind Kind, phone, reason string, occurredAt time.Time) (*ComplianceEvent, error) {
	if orgID == uuid.Nil {
		return nil, errors.NewValidationError("INVALID_ORGANIZATION", "organization id cannot be empty")
	}
	switch kind {
	case KindDNCBlock, KindCallingHoursBlock, KindOptOut:
	default:
		return nil, errors.NewValidationError("INVALID_EVENT_KIND", fmt.Sprintf("unknown audit event kind %q", kind))
	}

	e := &ComplianceEvent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Phone:          phone,
		Kind:           kind,
		Reason:         reason,
		OccurredAt:     occurredAt.UTC(),
	}
	e.EventHash = e.ComputeHash()
	return e, nil
}

// ForContact attaches campaign and contact ids and reseals the hash
func (e *ComplianceEvent) ForContact(campaignID, contactID uuid.UUID) *ComplianceEvent {
	e.CampaignID = &campaignID
	e.ContactID = &contactID
	e.EventHash = e.ComputeHash()
	return e
}

// ComputeHash returns the hex SHA-256 of the event content
func (e *ComplianceEvent) ComputeHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%d",
		e.ID, e.OrganizationID, optionalID(e.CampaignID), optionalID(e.ContactID),
		e.Phone, e.Kind, e.OccurredAt.UnixNano())
	h.Write([]byte{'|'})
	h.Write([]byte(e.Reason))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether the stored hash matches the content
func (e *ComplianceEvent) Verify() bool {
	return e.EventHash != "" && e.EventHash == e.ComputeHash()
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
