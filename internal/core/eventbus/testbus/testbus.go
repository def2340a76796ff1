// Package testbus runs a real EventBus in tests and records every event it
// delivers.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hay-kot/countdown/internal/core/eventbus"
)

// waitTimeout bounds AssertPublished.
const waitTimeout = 500 * time.Millisecond

// RecordedEvent is one delivered event.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus is a started EventBus that records deliveries.
type Bus struct {
	*eventbus.EventBus

	mu     sync.Mutex
	events []RecordedEvent
}

// New starts a recording bus. It is stopped, and drained, when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New(64)}

	watch(tb, eventbus.EventTimerCreated, tb.SubscribeTimerCreated)
	watch(tb, eventbus.EventTimerDeleted, tb.SubscribeTimerDeleted)
	watch(tb, eventbus.EventTimerStateChanged, tb.SubscribeTimerStateChanged)
	watch(tb, eventbus.EventTimerCompleted, tb.SubscribeTimerCompleted)
	watch(tb, eventbus.EventStorageCorrupted, tb.SubscribeStorageCorrupted)
	watch(tb, eventbus.EventNotificationPublished, tb.SubscribeNotificationPublished)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		tb.Start(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	return tb
}

func watch[T any](tb *Bus, event eventbus.Event, subscribe func(func(T))) {
	subscribe(func(p T) {
		tb.mu.Lock()
		tb.events = append(tb.events, RecordedEvent{Event: event, Payload: p})
		tb.mu.Unlock()
	})
}

// Events returns a copy of everything delivered so far.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	out := make([]RecordedEvent, len(tb.events))
	copy(out, tb.events)
	return out
}

// Count returns how many events of the given type were delivered.
func (tb *Bus) Count(event eventbus.Event) int {
	n := 0
	for _, e := range tb.Events() {
		if e.Event == event {
			n++
		}
	}
	return n
}

// WaitForCount polls until at least n events of the given type were
// delivered or the timeout expires.
func (tb *Bus) WaitForCount(event eventbus.Event, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if tb.Count(event) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// WaitFor is WaitForCount with n = 1.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	return tb.WaitForCount(event, 1, timeout)
}

// AssertPublished fails the test if no event of the given type is delivered
// in time.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	assert.True(t, tb.WaitFor(event, waitTimeout), "expected %q to be published", event)
}

// Payloads returns the delivered payloads of one event type, in order.
func Payloads[T any](tb *Bus, event eventbus.Event) []T {
	var out []T
	for _, e := range tb.Events() {
		if e.Event != event {
			continue
		}
		if p, ok := e.Payload.(T); ok {
			out = append(out, p)
		}
	}
	return out
}
