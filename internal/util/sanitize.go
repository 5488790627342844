package util

import (
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]+`)
	// ed25519 secret seeds in strkey form
	secretSeed = regexp.MustCompile(`\bS[A-Z2-7]{55}\b`)
)

// SanitizeForLog removes control characters and newlines from user content before logging.
func SanitizeForLog(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = controlChars.ReplaceAllString(s, " ")
	return RedactSecretSeeds(s)
}

// RedactSecretSeeds masks anything shaped like a signing key seed.
func RedactSecretSeeds(s string) string {
	return secretSeed.ReplaceAllString(s, "<redacted-seed>")
}
