// Package dialer places a single call for a contact and records the outcome.
package dialer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidleathers/campaign-dialer/internal/domain/call"
	"github.com/davidleathers/campaign-dialer/internal/domain/campaign"
	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// CallResult is the outcome of one dispatch. A failed dispatch is reported
// here, not as an error. Attempted is set once a provider request was made.
// Skipped means the contact left the pending state before it was dialed.
type CallResult struct {
	Success        bool      `json:"success"`
	Attempted      bool      `json:"attempted"`
	Skipped        bool      `json:"skipped,omitempty"`
	CallID         uuid.UUID `json:"call_id,omitempty"`
	ExternalCallID string    `json:"external_call_id,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Dispatcher places calls through the voice provider
type Dispatcher struct {
	contacts ContactWriter
	calls    CallWriter
	voice    VoiceClient
	clock    values.Clock
	logger   *zap.Logger
}

// NewDispatcher creates a call dispatcher
func NewDispatcher(contacts ContactWriter, calls CallWriter, voice VoiceClient, clock values.Clock, logger *zap.Logger) *Dispatcher {
	if clock == nil {
		clock = values.RealClock{}
	}
	return &Dispatcher{contacts: contacts, calls: calls, voice: voice, clock: clock, logger: logger}
}

// CheckPreconditions verifies the agent can place calls
func CheckPreconditions(agent *campaign.Agent) (campaign.AgentPhoneNumber, error) {
	if agent == nil || !agent.HasAssistant() {
		return campaign.AgentPhoneNumber{}, errors.ErrNoVoiceAssistant
	}
	phone, ok := agent.ActivePhoneNumber()
	if !ok {
		return campaign.AgentPhoneNumber{}, errors.ErrNoActivePhone
	}
	return phone, nil
}

// PlaceCall dispatches one call for contact.
//
// Agent precondition failures mark the contact failed and return a
// configuration error. An invalid contact number marks the contact failed
// without a provider request. Provider failures mark the contact failed and
// return a non-successful result with a nil error. Persistence failures are
// returned as internal errors.
func (d *Dispatcher) PlaceCall(ctx context.Context, contact *campaign.Contact, camp *campaign.Campaign, agent *campaign.Agent) (CallResult, error) {
	from, err := CheckPreconditions(agent)
	if err != nil {
		if uerr := d.markFailed(ctx, contact.ID); uerr != nil {
			return CallResult{}, uerr
		}
		return CallResult{Error: err.Error()}, err
	}

	to, err := values.NewPhoneNumber(contact.PhoneNumber)
	if err != nil {
		d.logger.Warn("Contact number is not dialable",
			zap.String("campaign_id", camp.ID.String()),
			zap.String("contact_id", contact.ID.String()),
			zap.Error(err))
		if uerr := d.markFailed(ctx, contact.ID); uerr != nil {
			return CallResult{}, uerr
		}
		return CallResult{Error: err.Error()}, nil
	}

	if err := d.contacts.MarkCalled(ctx, contact.ID, d.clock.Now()); err != nil {
		if errors.IsCode(err, errors.ErrContactState.Code) {
			return CallResult{Skipped: true, Error: "contact is no longer pending"}, nil
		}
		return CallResult{}, errors.NewInternalError("failed to mark contact called").WithCause(err)
	}

	resp, err := d.voice.PlaceCall(ctx, &CallRequest{
		AssistantID:    agent.VoiceAssistantID,
		PhoneNumberID:  from.ExternalID,
		CustomerNumber: to.String(),
		Metadata: map[string]string{
			"campaignId":  camp.ID.String(),
			"contactId":   contact.ID.String(),
			"orgId":       camp.OrganizationID.String(),
			"contactName": contact.Name,
		},
	})
	if err == nil && (resp == nil || resp.ID == "") {
		err = errors.NewExternalError("voice", "provider returned no call id")
	}
	if err != nil {
		d.logger.Warn("Call dispatch failed",
			zap.String("campaign_id", camp.ID.String()),
			zap.String("contact_id", contact.ID.String()),
			zap.Error(err))
		if uerr := d.markFailed(ctx, contact.ID); uerr != nil {
			return CallResult{}, uerr
		}
		return CallResult{Attempted: true, Error: err.Error()}, nil
	}

	c, err := call.NewOutboundCall(camp.OrganizationID, agent.ID, camp.ID, contact.ID,
		to.String(), resp.ID, call.ParseStatus(resp.Status), d.clock)
	if err != nil {
		return CallResult{}, errors.NewInternalError("failed to build call record").WithCause(err)
	}
	if err := d.calls.Create(ctx, c); err != nil {
		return CallResult{}, errors.NewInternalError("failed to persist call").WithCause(err)
	}

	d.logger.Debug("Call placed",
		zap.String("campaign_id", camp.ID.String()),
		zap.String("contact_id", contact.ID.String()),
		zap.String("external_call_id", resp.ID))

	return CallResult{Success: true, Attempted: true, CallID: c.ID, ExternalCallID: resp.ID}, nil
}

// markFailed moves the contact to failed. A contact that already left the
// states failed can follow, such as one flagged dnc meanwhile, is left alone.
func (d *Dispatcher) markFailed(ctx context.Context, contactID uuid.UUID) error {
	err := d.contacts.UpdateStatus(ctx, contactID, campaign.ContactFailed)
	if err == nil || errors.IsCode(err, errors.ErrContactState.Code) {
		return nil
	}
	return errors.NewInternalError("failed to mark contact failed").WithCause(err)
}
