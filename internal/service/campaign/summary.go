package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is what happened to one contact during a run
type Outcome string

const (
	OutcomeCalled  Outcome = "called"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// HaltReason explains why a run loop ended
type HaltReason string

const (
	HaltExhausted HaltReason = "exhausted"
	HaltPaused    HaltReason = "paused"
	HaltStopped   HaltReason = "stopped"
	HaltQuota     HaltReason = "quota_exceeded"
	HaltDailyCap  HaltReason = "daily_cap_reached"
	HaltLeaseLost HaltReason = "lease_lost"
	HaltCanceled  HaltReason = "canceled"
	HaltError     HaltReason = "error"
)

// ContactResult is the per-contact record of a run
type ContactResult struct {
	ContactID uuid.UUID `json:"contact_id"`
	Phone     string    `json:"phone"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// RunSummary aggregates one run of a campaign
type RunSummary struct {
	CampaignID     uuid.UUID       `json:"campaign_id"`
	TotalContacts  int             `json:"total_contacts"`
	CallsAttempted int             `json:"calls_attempted"`
	CallsSucceeded int             `json:"calls_succeeded"`
	CallsFailed    int             `json:"calls_failed"`
	CallsSkipped   int             `json:"calls_skipped"`
	HaltReason     HaltReason      `json:"halt_reason"`
	Detail         string          `json:"detail,omitempty"`
	Results        []ContactResult `json:"results"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
}

func (s *RunSummary) add(r ContactResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeCalled:
		s.CallsAttempted++
		s.CallsSucceeded++
	case OutcomeFailed:
		s.CallsAttempted++
		s.CallsFailed++
	case OutcomeSkipped:
		s.CallsSkipped++
	}
}
