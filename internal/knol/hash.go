package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins a card's front and back after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings before
// joining them.
func Normalize(front, back string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		p = strings.TrimSpace(p)
		return p
	}

	// Joined with a newline so "ab"+"c" and "a"+"bc" stay distinct.
	return normalizePart(front) + "\n" + normalizePart(back)
}

// Hash returns the SHA-256 of the normalized front and back as a hex string.
// Cards differing only in case or surrounding whitespace share a hash.
func Hash(front, back string) string {
	hashBytes := sha256.Sum256([]byte(Normalize(front, back)))
	return fmt.Sprintf("%x", hashBytes)
}
