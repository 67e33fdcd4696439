package vipps

import "strings"

// FormatPhone normalizes a phone number to the 47XXXXXXXX form the Vipps API
// expects. Accepts bare 8-digit numbers, +47/0047 prefixes and stray
// formatting characters.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "0047"):
		return digits[2:]
	case strings.HasPrefix(digits, "47") && len(digits) == 10:
		return digits
	case len(digits) == 8:
		return "47" + digits
	default:
		return "47" + digits
	}
}
