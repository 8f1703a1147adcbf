package crm

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// normalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func normalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
