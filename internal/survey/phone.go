package survey

import "strings"

// Addresser turns recipient identifiers into channel addresses and back.
type Addresser struct {
	// Prefix is the transport prefix, e.g. "whatsapp". Empty for plain SMS.
	Prefix string
	// CountryCode is the dialing code without "+", e.g. "91".
	CountryCode string
}

// Address builds the outbound "to" value, e.g. "whatsapp:+919876543210".
func (a Addresser) Address(recipientID string) string {
	number := "+" + a.CountryCode + recipientID
	if a.Prefix == "" {
		return number
	}
	return a.Prefix + ":" + number
}

// Normalize strips the transport prefix and the country-code literal from an
// inbound sender so it compares equal to roster identifiers.
func (a Addresser) Normalize(from string) string {
	s := strings.TrimSpace(from)
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	if a.CountryCode != "" {
		s = strings.TrimPrefix(s, "+"+a.CountryCode)
	}
	return strings.TrimSpace(s)
}
