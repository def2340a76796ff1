package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log all event activity at debug level.
// Timer payloads add the timer id to the log line.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		ev := logger.Debug().Str("event", string(event))
		if id := timerID(payload); id != "" {
			ev = ev.Str("timer_id", id)
		}
		ev.Msg("event fired")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func timerID(payload any) string {
	switch p := payload.(type) {
	case TimerCreatedPayload:
		return p.Timer.ID
	case TimerDeletedPayload:
		return p.Timer.ID
	case TimerStateChangedPayload:
		return p.Timer.ID
	case TimerCompletedPayload:
		return p.Completion.ID
	default:
		return ""
	}
}
