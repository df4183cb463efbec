package domain

import (
	"strings"
	"unicode"
)

const maxSessionIDLength = 128

// ValidateSessionID normalizes and validates an opaque session identifier.
// It returns the trimmed id, or ErrInvalidSessionID if the id is empty,
// too long, or contains control or whitespace characters.
func ValidateSessionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxSessionIDLength {
		return "", ErrInvalidSessionID
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", ErrInvalidSessionID
		}
	}
	return id, nil
}
