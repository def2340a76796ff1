package kv

import (
	"context"
	"strings"
)

// ScopedKV prefixes every key with "namespace:" before delegating.
type ScopedKV struct {
	store  KV
	prefix string
}

var (
	_ KV     = (*ScopedKV)(nil)
	_ Lister = (*ScopedKV)(nil)
)

// Scoped returns store unchanged when namespace is empty, otherwise a KV that
// prefixes all keys with "namespace:".
func Scoped(store KV, namespace string) KV {
	if namespace == "" {
		return store
	}
	return &ScopedKV{
		store:  store,
		prefix: namespace + ":",
	}
}

// Get retrieves the value stored under the prefixed key.
func (s *ScopedKV) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.prefix+key)
}

// Set stores value under the prefixed key.
func (s *ScopedKV) Set(ctx context.Context, key string, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

// Keys lists the keys inside the namespace with the prefix removed. A
// backend that cannot enumerate keys yields none.
func (s *ScopedKV) Keys(ctx context.Context) ([]string, error) {
	lister, ok := s.store.(Lister)
	if !ok {
		return nil, nil
	}

	all, err := lister.Keys(ctx)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, s.prefix); ok {
			keys = append(keys, rest)
		}
	}
	return keys, nil
}
