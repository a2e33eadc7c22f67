package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComplianceEvent(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	org := uuid.New()

	e, err := NewComplianceEvent(org, KindDNCBlock, "+12125550100", "internal list", now)
	require.NoError(t, err)
	assert.True(t, e.Verify())
	assert.Nil(t, e.CampaignID)

	before := e.EventHash
	e.ForContact(uuid.New(), uuid.New())
	assert.NotEqual(t, before, e.EventHash)
	assert.True(t, e.Verify())

	e.Reason = "tampered"
	assert.False(t, e.Verify())

	_, err = NewComplianceEvent(org, "bogus", "+12125550100", "", now)
	assert.Error(t, err)

	_, err = NewComplianceEvent(uuid.Nil, KindOptOut, "+12125550100", "", now)
	assert.Error(t, err)
}
