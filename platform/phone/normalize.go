// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers entered without a country code.
const DefaultRegion = "BR"

// ParseE164 reports whether input is a valid phone number and returns its E.164 form.
func ParseE164(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil {
		return "", false
	}

	if !phonenumbers.IsValidNumber(number) {
		return "", false
	}

	return phonenumbers.Format(number, phonenumbers.E164), true
}

// Digits returns the E.164 number without the leading plus, the form WhatsApp gateways expect.
func Digits(input string) (string, bool) {
	normalized, ok := ParseE164(input)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(normalized, "+"), true
}

// ParsePossibleE164 is ParseE164 with a length-only check. It accepts numbers in
// unassigned ranges, which lookup providers may still know about.
func ParsePossibleE164(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	number, err := phonenumbers.Parse(trimmed, DefaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(number) {
		return "", false
	}

	return phonenumbers.Format(number, phonenumbers.E164), true
}
