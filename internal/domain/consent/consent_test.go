package consent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/campaign-dialer/internal/domain/errors"
)

func TestNewConsent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)
	org := uuid.New()

	tests := []struct {
		name      string
		phone     string
		ctype     Type
		method    Method
		expiresAt *time.Time
		wantCode  string
	}{
		{name: "valid PEWC", phone: "212-555-0100", ctype: TypePEWC, method: MethodWebForm},
		{name: "valid with expiry", phone: "2125550100", ctype: TypeEBR, method: MethodPaper, expiresAt: &future},
		{name: "expiry in past", phone: "2125550100", ctype: TypeEBR, method: MethodPaper, expiresAt: &past, wantCode: "INVALID_EXPIRATION"},
		{name: "bad type", phone: "2125550100", ctype: "IMPLIED", method: MethodVerbal, wantCode: "INVALID_CONSENT_TYPE"},
		{name: "bad method", phone: "2125550100", ctype: TypeExpress, method: "sms", wantCode: "INVALID_CONSENT_METHOD"},
		{name: "bad phone", phone: "", ctype: TypeExpress, method: MethodVerbal, wantCode: "INVALID_PHONE_NUMBER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConsent(org, tt.phone, tt.ctype, tt.method, "I agree", tt.expiresAt, now)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "+12125550100", c.ContactPhone)
			assert.True(t, c.IsActive(now))
		})
	}
}

func TestConsent_StatusAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(time.Hour)

	c := &Consent{ExpiresAt: &exp}
	assert.Equal(t, StatusActive, c.StatusAt(now))
	assert.Equal(t, StatusExpired, c.StatusAt(exp))

	c.Revoke(now)
	assert.Equal(t, StatusRevoked, c.StatusAt(now))

	first := *c.RevokedAt
	c.Revoke(now.Add(time.Minute))
	assert.Equal(t, first, *c.RevokedAt)
}

func TestParseType(t *testing.T) {
	ty, err := ParseType("pewc")
	require.NoError(t, err)
	assert.Equal(t, TypePEWC, ty)

	m, err := ParseMethod("WEB_FORM")
	require.NoError(t, err)
	assert.Equal(t, MethodWebForm, m)
}

func BenchmarkConsent_IsActive(b *testing.B) {
	now := time.Now()
	exp := now.Add(time.Hour)
	c := &Consent{ExpiresAt: &exp}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.IsActive(now)
	}
}
