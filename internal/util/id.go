package util

import "github.com/google/uuid"

// NewID returns a new UUID string used as a row identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s parses as a UUID. Used to reject malformed
// identifiers before any database call.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
