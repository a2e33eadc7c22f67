package rest

import (
	"time"

	"github.com/google/uuid"

	campaignpkg "github.com/davidleathers/campaign-dialer/internal/domain/campaign"
)

// AddDNCRequest is the body of POST /v1/dnc
type AddDNCRequest struct {
	Phone  string `json:"phone" validate:"required,phone"`
	Source string `json:"source" validate:"omitempty,oneof=national internal verbal_request"`
	Reason string `json:"reason" validate:"max=500"`
}

// ScrubRequest is the body of POST /v1/dnc/scrub
type ScrubRequest struct {
	Phones []string `json:"phones" validate:"required,min=1,max=10000"`
}

// RecordConsentRequest is the body of POST /v1/consents
type RecordConsentRequest struct {
	Phone     string     `json:"phone" validate:"required,phone"`
	Type      string     `json:"consent_type" validate:"required"`
	Method    string     `json:"consent_method" validate:"required"`
	Text      string     `json:"consent_text" validate:"max=5000"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// OptOutRequest is the body of POST /v1/opt-outs
type OptOutRequest struct {
	Phone      string     `json:"phone" validate:"required,phone"`
	CallID     *uuid.UUID `json:"call_id"`
	Transcript string     `json:"transcript"`
}

// CampaignActionResponse acknowledges a control request
type CampaignActionResponse struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	Action     string    `json:"action"`
}

// CampaignStateResponse reports where a campaign stands
type CampaignStateResponse struct {
	CampaignID uuid.UUID            `json:"campaign_id"`
	Running    bool                 `json:"running"`
	RunState   string               `json:"run_state,omitempty"`
	Status     string               `json:"status"`
	Stats      campaignpkg.RunStats `json:"stats"`
}

// OptOutResponse reports the outcome of an opt-out submission. Handled is
// false when a transcript was supplied without an opt-out phrase.
type OptOutResponse struct {
	Handled bool        `json:"handled"`
	Result  interface{} `json:"result,omitempty"`
}

// RevokeConsentResponse reports how many consents were revoked
type RevokeConsentResponse struct {
	Phone   string `json:"phone"`
	Revoked int64  `json:"revoked"`
}
