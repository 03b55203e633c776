// Package redact masks personal identifiers before they reach logs.
package redact

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Phone masks the middle of a phone number: 18212345678 -> 182****5678.
// Values too short to mask are replaced entirely.
func Phone(phone string) string {
	r := []rune(phone)
	if len(r) < 7 {
		return "****"
	}
	return string(r[:3]) + "****" + string(r[len(r)-4:])
}

// Fingerprint returns a short stable digest of an identifier so log lines
// for the same identity can be correlated without the identity itself.
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:6])
}
