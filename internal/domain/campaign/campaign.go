package campaign

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Campaign is a named batch of contacts dialed by one agent
type Campaign struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	AgentID        uuid.UUID    `json:"agent_id"`
	Name           string       `json:"name"`
	Status         Status       `json:"status"`
	CallingHours   CallingHours `json:"calling_hours"`
	MaxCallsPerDay int          `json:"max_calls_per_day"`
	ScheduleStart  *time.Time   `json:"schedule_start,omitempty"`
	ScheduleEnd    *time.Time   `json:"schedule_end,omitempty"`
	Stats          RunStats     `json:"stats"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Status is the persisted lifecycle status of a campaign
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further runs are allowed
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// CallingHours is the campaign's own daily dialing window in "HH:mm" local time
type CallingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Window parses the calling hours. An empty value means no campaign-level
// restriction and yields the full day.
func (h CallingHours) Window() (values.DailyWindow, error) {
	if h.Start == "" && h.End == "" {
		return values.HourWindow(0, 24), nil
	}
	w, err := values.ParseDailyWindow(h.Start, h.End)
	if err != nil {
		return values.DailyWindow{}, errors.NewValidationError("INVALID_CALLING_HOURS",
			fmt.Sprintf("invalid calling hours %q-%q", h.Start, h.End)).WithCause(err)
	}
	return w, nil
}

// WithinSchedule reports whether t falls inside the optional schedule bounds
func (c *Campaign) WithinSchedule(t time.Time) bool {
	if c.ScheduleStart != nil && t.Before(*c.ScheduleStart) {
		return false
	}
	if c.ScheduleEnd != nil && !t.Before(*c.ScheduleEnd) {
		return false
	}
	return true
}

// BelongsTo reports whether the campaign is owned by orgID
func (c *Campaign) BelongsTo(orgID uuid.UUID) bool {
	return c.OrganizationID == orgID
}
