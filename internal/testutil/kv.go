// Package testutil provides fakes shared by countdown tests.
package testutil

import (
	"context"
	"sync"

	"github.com/hay-kot/countdown/internal/core/kv"
)

// FaultyKV wraps an in-memory KV and fails reads or writes on demand.
type FaultyKV struct {
	*kv.Memory

	mu     sync.Mutex
	getErr error
	setErr error
	sets   int
	onSet  func(key string)
}

var _ kv.KV = (*FaultyKV)(nil)

// NewFaultyKV creates a FaultyKV with no faults armed.
func NewFaultyKV() *FaultyKV {
	return &FaultyKV{Memory: kv.NewMemory()}
}

// FailGets makes every Get return err until cleared with nil.
func (f *FaultyKV) FailGets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

// FailSets makes every Set return err until cleared with nil.
func (f *FaultyKV) FailSets(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setErr = err
}

// OnSet registers fn to run at the start of every Set, before any armed
// fault is checked. fn may call back into code that is itself mid-write.
func (f *FaultyKV) OnSet(fn func(key string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSet = fn
}

// Sets returns the number of successful Set calls.
func (f *FaultyKV) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

// Get returns the armed read fault or delegates to the in-memory store.
func (f *FaultyKV) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	err := f.getErr
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.Memory.Get(ctx, key)
}

// Set returns the armed write fault or delegates to the in-memory store.
func (f *FaultyKV) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	hook := f.onSet
	f.mu.Unlock()
	if hook != nil {
		hook(key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	return f.Memory.Set(ctx, key, value)
}

// MustGet returns the stored value or "" when absent.
func (f *FaultyKV) MustGet(key string) string {
	v, err := f.Memory.Get(context.Background(), key)
	if err != nil {
		return ""
	}
	return v
}
