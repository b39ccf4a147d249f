// Package uuid generates time-ordered identifiers for database rows
// and request correlation.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7. UUIDv7 is time-ordered and suitable for
// use as a primary key on append-only tables.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fallback to random UUIDv4 if the system clock/entropy fails.
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
