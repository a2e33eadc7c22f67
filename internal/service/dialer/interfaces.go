package dialer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/call"
	"github.com/davidleathers/campaign-dialer/internal/domain/campaign"
)

// VoiceClient places outbound calls at the voice provider
type VoiceClient interface {
	PlaceCall(ctx context.Context, req *CallRequest) (*CallResponse, error)
}

// CallRequest is the provider request for one outbound call
type CallRequest struct {
	AssistantID    string
	PhoneNumberID  string
	CustomerNumber string
	Metadata       map[string]string
}

// CallResponse is the provider acknowledgement
type CallResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ContactWriter records dispatch outcomes on contacts
type ContactWriter interface {
	UpdateStatus(ctx context.Context, contactID uuid.UUID, status campaign.ContactStatus) error
	MarkCalled(ctx context.Context, contactID uuid.UUID, at time.Time) error
}

// CallWriter persists call rows
type CallWriter interface {
	Create(ctx context.Context, c *call.Call) error
}
