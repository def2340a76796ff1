package timer

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource produces fresh timer ids.
type IDSource interface {
	NewID() (string, error)
}

// IDFunc adapts a function to IDSource.
type IDFunc func() (string, error)

// NewID calls f.
func (f IDFunc) NewID() (string, error) { return f() }

// UUIDSource issues time-ordered UUIDv7 ids, which stay unique for timers
// created within the same millisecond.
type UUIDSource struct{}

// NewID returns a new UUIDv7 string.
func (UUIDSource) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
