package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a person to dial within a campaign
type Contact struct {
	ID             uuid.UUID     `json:"id"`
	OrganizationID uuid.UUID     `json:"organization_id"`
	CampaignID     uuid.UUID     `json:"campaign_id"`
	Name           string        `json:"name"`
	PhoneNumber    string        `json:"phone_number"`
	Status         ContactStatus `json:"status"`
	CallAttempts   int           `json:"call_attempts"`
	LastCalledAt   *time.Time    `json:"last_called_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ContactStatus string

const (
	ContactPending   ContactStatus = "pending"
	ContactCalled    ContactStatus = "called"
	ContactCompleted ContactStatus = "completed"
	ContactFailed    ContactStatus = "failed"
	ContactDNC       ContactStatus = "dnc"
)

func (s ContactStatus) String() string {
	return string(s)
}

// CanTransitionTo enforces pending -> {called, dnc, failed}. Result
// ingestion may later move a called contact to completed.
func (s ContactStatus) CanTransitionTo(next ContactStatus) bool {
	switch s {
	case ContactPending:
		return next == ContactCalled || next == ContactDNC || next == ContactFailed
	case ContactCalled:
		return next == ContactCompleted || next == ContactFailed || next == ContactDNC
	case ContactCompleted, ContactFailed:
		return next == ContactDNC
	default:
		return false
	}
}

// Sources lists the statuses that may transition to s
func (s ContactStatus) Sources() []ContactStatus {
	var out []ContactStatus
	for _, from := range []ContactStatus{ContactPending, ContactCalled, ContactCompleted, ContactFailed, ContactDNC} {
		if from.CanTransitionTo(s) {
			out = append(out, from)
		}
	}
	return out
}

// IsDialable reports whether the executor may place a call to the contact
func (c *Contact) IsDialable() bool {
	return c.Status == ContactPending
}
