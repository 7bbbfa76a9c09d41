// Package uuid generates time-ordered UUIDv7 identifiers. It wraps
// github.com/google/uuid so callers never pick a version by accident.
package uuid

import (
	"github.com/google/uuid"
)

// NewRequestID returns a UUIDv7 string suitable for the X-Request-Id header.
// Falls back to a v4 identifier if v7 generation fails.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
