package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hay-kot/countdown/internal/core/timer"
)

func TestEventBus_DrainsOnShutdown(t *testing.T) {
	bus := New(8)

	var (
		mu  sync.Mutex
		got []string
	)
	bus.SubscribeTimerCreated(func(p TimerCreatedPayload) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p.Timer.Name)
	})

	bus.PublishTimerCreated(TimerCreatedPayload{Timer: timer.Timer{Name: "a"}})
	bus.PublishTimerCreated(TimerCreatedPayload{Timer: timer.Timer{Name: "b"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := New(1)

	var dropped []Event
	bus.OnDrop(func(e Event, _ any) { dropped = append(dropped, e) })

	bus.PublishTimerDeleted(TimerDeletedPayload{})
	bus.PublishTimerDeleted(TimerDeletedPayload{})

	assert.Equal(t, []Event{EventTimerDeleted}, dropped)
}

func TestEventBus_RecoversSubscriberPanic(t *testing.T) {
	bus := New(4)

	var panicked any
	bus.OnPanic(func(_ Event, _ any, r any) { panicked = r })

	delivered := false
	bus.SubscribeTimerCompleted(func(TimerCompletedPayload) { panic("boom") })
	bus.SubscribeTimerCompleted(func(TimerCompletedPayload) { delivered = true })

	bus.PublishTimerCompleted(TimerCompletedPayload{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Start(ctx)

	assert.Equal(t, "boom", panicked)
	assert.True(t, delivered, "later subscribers still run")
}
