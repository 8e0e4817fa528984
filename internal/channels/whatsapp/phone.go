package whatsapp

import "strings"

// NormalizeWAID reduces a phone number to the digits-only form WhatsApp uses
// as a sender id, so "+591 700-000" and "591700000" name the same customer.
func NormalizeWAID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
