package leads

import "strings"

// NormalizeE164 converts a phone number into canonical +<digits> form. Ten-digit
// numbers are assumed to be US/Canada and prefixed with +1. Returns "" when the
// value cannot be a dialable number.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && d[0] == '1':
		return "+" + d
	case len(d) >= 8 && len(d) <= 15:
		return "+" + d
	default:
		return ""
	}
}
