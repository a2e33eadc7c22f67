package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/consent"
	"github.com/davidleathers/campaign-dialer/internal/domain/dnc"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// HoursResult is the outcome of a calling-hours check
type HoursResult struct {
	CanCall           bool               `json:"can_call"`
	Reason            string             `json:"reason,omitempty"`
	NextAvailableTime *time.Time         `json:"next_available_time,omitempty"`
	Window            values.DailyWindow `json:"-"`
	Timezone          string             `json:"timezone"`
}

// ConsentResult is the outcome of a consent lookup
type ConsentResult struct {
	HasConsent  bool         `json:"has_consent"`
	ConsentType consent.Type `json:"consent_type,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// AddDNCRequest adds a number to an organization's DNC list
type AddDNCRequest struct {
	OrganizationID uuid.UUID
	Phone          string
	Source         dnc.Source
	Reason         string
}

// RecordConsentRequest records a newly captured consent
type RecordConsentRequest struct {
	OrganizationID uuid.UUID
	Phone          string
	Type           consent.Type
	Method         consent.Method
	Text           string
	ExpiresAt      *time.Time
}

// OptOutRequest reports a verbal opt-out detected on a call
type OptOutRequest struct {
	Phone          string
	OrganizationID uuid.UUID
	CallID         *uuid.UUID
	Transcript     string
}

// OptOutResult reports what HandleOptOutRequest changed
type OptOutResult struct {
	Phone            string `json:"phone"`
	ContactsMarked   int64  `json:"contacts_marked"`
	ConsentsRevoked  int64  `json:"consents_revoked"`
	DetectedInSpeech bool   `json:"detected_in_speech"`
}

// ScrubResult partitions a phone list into callable and blocked numbers
type ScrubResult struct {
	Clean   []string        `json:"clean"`
	Blocked []BlockedNumber `json:"blocked"`
}

// BlockedNumber is a number rejected by a scrub
type BlockedNumber struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}
