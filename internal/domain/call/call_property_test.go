package call

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/campaign-dialer/internal/domain/values"
)

// Property-based tests using Go's built-in testing/quick package

func TestCall_PropertyInvariants(t *testing.T) {
	clock := values.NewMockClock(time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC))

	t.Run("outbound calls store normalized numbers", func(t *testing.T) {
		property := func(n uint32) bool {
			raw := "212" + padDigits(n, 7)
			c, err := NewOutboundCall(uuid.New(), uuid.New(), uuid.New(), uuid.New(), raw, "ext", StatusQueued, clock)
			if err != nil {
				return false
			}
			return c.ToNumber == "+1"+raw && c.Direction == DirectionOutbound && !c.UpdatedAt.Before(c.CreatedAt)
		}

		require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 500}))
	})

	t.Run("ParseStatus always yields a known status", func(t *testing.T) {
		known := map[Status]bool{
			StatusQueued: true, StatusRinging: true, StatusInProgress: true,
			StatusCompleted: true, StatusFailed: true, StatusNoAnswer: true, StatusBusy: true,
		}
		property := func(s string) bool {
			return known[ParseStatus(s)]
		}

		require.NoError(t, quick.Check(property, &quick.Config{MaxCount: 1000}))
	})
}

func padDigits(n uint32, width int) string {
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte('0' + n%10)
		n /= 10
	}
	return string(out)
}
