package call

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

func TestNewOutboundCall(t *testing.T) {
	clock := values.NewMockClock(time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC))
	org, agent, camp, contact := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	c, err := NewOutboundCall(org, agent, camp, contact, "(212) 555-0100", "call_123", StatusQueued, clock)
	require.NoError(t, err)

	assert.Equal(t, "+12125550100", c.ToNumber)
	assert.Equal(t, DirectionOutbound, c.Direction)
	assert.Equal(t, StatusQueued, c.Status)
	assert.Equal(t, clock.Now(), c.CreatedAt)
	assert.NotEqual(t, uuid.Nil, c.ID)

	_, err = NewOutboundCall(org, agent, camp, contact, "+12125550100", "", StatusQueued, clock)
	assert.Error(t, err)

	_, err = NewOutboundCall(uuid.Nil, agent, camp, contact, "+12125550100", "x", StatusQueued, clock)
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusRinging, ParseStatus("ringing"))
	assert.Equal(t, StatusInProgress, ParseStatus("in-progress"))
	assert.Equal(t, StatusCompleted, ParseStatus("ended"))
	assert.Equal(t, StatusQueued, ParseStatus("scheduled"))
}
