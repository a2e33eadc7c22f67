package campaign

import (
	"github.com/google/uuid"
)

// Agent is the calling persona used by a campaign. The core only reads it.
type Agent struct {
	ID               uuid.UUID          `json:"id"`
	OrganizationID   uuid.UUID          `json:"organization_id"`
	Name             string             `json:"name"`
	VoiceAssistantID string             `json:"voice_assistant_id"`
	PhoneNumbers     []AgentPhoneNumber `json:"phone_numbers"`
}

// AgentPhoneNumber is a caller id provisioned at the voice provider
type AgentPhoneNumber struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Number     string    `json:"number"`
	Active     bool      `json:"active"`
}

// ActivePhoneNumber returns the first active number
func (a *Agent) ActivePhoneNumber() (AgentPhoneNumber, bool) {
	for _, p := range a.PhoneNumbers {
		if p.Active && p.ExternalID != "" {
			return p, true
		}
	}
	return AgentPhoneNumber{}, false
}

// HasAssistant reports whether a voice assistant is configured
func (a *Agent) HasAssistant() bool {
	return a.VoiceAssistantID != ""
}
