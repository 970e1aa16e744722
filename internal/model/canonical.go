package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalEmail normalizes an email for identity lookups: NFC, trimmed,
// lower-cased. Empty input stays empty.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(email)))
}

// CanonicalPhone trims surrounding whitespace from a phone value. Digits
// are stored as the platform sent them; two sources disagreeing on
// formatting is an upstream data issue, not one this layer guesses at.
func CanonicalPhone(phone string) string {
	return strings.TrimSpace(phone)
}

// CanonicalName applies NFC normalization and trims whitespace so names
// from different exports compare and display consistently.
func CanonicalName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}
