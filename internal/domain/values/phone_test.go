package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ten digits gets +1", input: "5551234567", expected: "+15551234567"},
		{name: "formatted ten digits", input: "(555) 123-4567", expected: "+15551234567"},
		{name: "eleven digits with trunk 1", input: "1-555-123-4567", expected: "+15551234567"},
		{name: "already E.164", input: "+15551234567", expected: "+15551234567"},
		{name: "international keeps digits", input: "+44 20 7123 4567", expected: "+442071234567"},
		{name: "eleven digits not starting with 1", input: "25551234567", expected: "+25551234567"},
		{name: "short input", input: "911", expected: "+911"},
		{name: "no digits", input: "call me", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{
		"5551234567",
		"(555) 123-4567",
		"1 555 123 4567",
		"+15551234567",
		"+442071234567",
		"0044 20 7123 4567",
		"123",
		"1",
		"",
		"ext. 42",
		"+1 (800) FLOWERS",
	}

	for _, in := range inputs {
		once := NormalizePhone(in)
		assert.Equal(t, once, NormalizePhone(once), "input %q", in)
	}
}

func TestNewPhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		expected string
		wantErr  bool
	}{
		{name: "valid E.164 US number", number: "+15551234567", expected: "+15551234567"},
		{name: "US number with parentheses", number: "(555) 123-4567", expected: "+15551234567"},
		{name: "US number with country code", number: "1-555-123-4567", expected: "+15551234567"},
		{name: "international UK number", number: "+442071234567", expected: "+442071234567"},
		{name: "empty number", number: "", wantErr: true},
		{name: "too short", number: "123", wantErr: true},
		{name: "invalid characters", number: "abc-def-ghij", wantErr: true},
		{name: "too long", number: "+1234567890123456789", wantErr: true},
		{name: "short number with plus", number: "+12345", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phone, err := NewPhoneNumber(tt.number)
			if tt.wantErr {
				require.Error(t, err)
				var pve PhoneValidationError
				assert.ErrorAs(t, err, &pve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, phone.String())
		})
	}
}

func TestAreaCode(t *testing.T) {
	assert.Equal(t, "212", AreaCode("(212) 555-0100"))
	assert.Equal(t, "415", AreaCode("14155550100"))
	assert.Equal(t, "", AreaCode("+442071234567"))
	assert.Equal(t, "", AreaCode(""))
}
