// Package kv defines the durable key-value capability timers and history
// are persisted through.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) by Get when a key has never been set.
var ErrNotFound = errors.New("kv: key not found")

// KV is the interface for a durable string key-value store.
// Set replaces the full value stored under key; implementations must never
// leave a partially written value behind.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// IsNotFound reports whether err signals an absent key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
