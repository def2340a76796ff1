// Package jsonfile implements kv.KV on top of plain files, one file per key.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hay-kot/countdown/internal/core/kv"
)

const ext = ".json"

// KVStore stores each key in <dir>/<key>.json. Writes go to a temp file that
// is renamed into place so readers never observe a partial value.
type KVStore struct {
	dir string
	mu  sync.RWMutex
}

var (
	_ kv.KV     = (*KVStore)(nil)
	_ kv.Lister = (*KVStore)(nil)
)

// NewKVStore creates a store rooted at dir. The directory is created on the
// first write.
func NewKVStore(dir string) *KVStore {
	return &KVStore{dir: dir}
}

// Get returns the contents of the key's file. A missing file returns
// kv.ErrNotFound.
func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("kv get %q: %w", key, kv.ErrNotFound)
		}
		return "", fmt.Errorf("kv get %q: %w", key, err)
	}
	return string(data), nil
}

// Set replaces the key's file atomically.
func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *KVStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		keys = append(keys, fileKey(strings.TrimSuffix(name, ext)))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *KVStore) path(key string) string {
	return filepath.Join(s.dir, fileName(key)+ext)
}

// Namespaced keys use ':' which is not portable in file names.
func fileName(key string) string { return strings.ReplaceAll(key, ":", "@") }
func fileKey(name string) string { return strings.ReplaceAll(name, "@", ":") }
