package values

import (
	"fmt"
	"regexp"
	"strings"
)

// PhoneNumber represents a normalized phone number value object
type PhoneNumber struct {
	number string // Stored in E.164 format (+15551234567)
}

// E.164 format: + followed by up to 15 digits
var e164Regex = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// NormalizePhone reduces any phone string to a country-code-aware E.164-style form.
//
//   - 10 digits: NANP national number, "+1" is prepended
//   - 11 digits starting with 1: NANP with trunk prefix, "+" is prepended
//   - anything else: "+" is prepended to the digits as-is
//
// Input without any digits normalizes to "". The function is idempotent.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return ""
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+" + digits
	}
}

// NewPhoneNumber creates a new PhoneNumber value object with validation
func NewPhoneNumber(number string) (PhoneNumber, error) {
	if strings.TrimSpace(number) == "" {
		return PhoneNumber{}, PhoneValidationError{Number: number, Reason: "phone number cannot be empty"}
	}

	normalized := NormalizePhone(number)
	if !e164Regex.MatchString(normalized) {
		return PhoneNumber{}, PhoneValidationError{Number: number, Reason: "not a valid E.164 number"}
	}

	return PhoneNumber{number: normalized}, nil
}

// String returns the phone number in E.164 format
func (p PhoneNumber) String() string {
	return p.number
}

// AreaCode extracts the 3-digit NANP area code from any phone string
func AreaCode(phone string) string {
	normalized := NormalizePhone(phone)
	if len(normalized) != 12 || !strings.HasPrefix(normalized, "+1") {
		return ""
	}
	return normalized[2:5]
}

// PhoneValidationError represents validation errors for phone numbers
type PhoneValidationError struct {
	Number string
	Reason string
}

func (e PhoneValidationError) Error() string {
	return fmt.Sprintf("invalid phone number '%s': %s", e.Number, e.Reason)
}
