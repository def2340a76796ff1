package eventbus

import (
	"fmt"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeTimerCompleted(func(p TimerCompletedPayload) {
		r.notifyf(LevelInfo, "%s completed!", p.Completion.Name)
		if p.Err != nil {
			r.notifyf(LevelError, "completion of %q was not fully saved: %v", p.Completion.Name, p.Err)
		}
	})

	r.bus.SubscribeTimerCreated(func(p TimerCreatedPayload) {
		r.notifyf(LevelInfo, "timer %q added to %s", p.Timer.Name, p.Timer.Category)
	})

	r.bus.SubscribeTimerDeleted(func(p TimerDeletedPayload) {
		r.notifyf(LevelInfo, "timer %q removed", p.Timer.Name)
	})

	r.bus.SubscribeStorageCorrupted(func(p StorageCorruptedPayload) {
		r.notifyf(LevelWarning, "stored %s could not be read and will be backed up on the next save: %v", p.Key, p.Err)
	})
}

func (r *NotificationRouter) notifyf(level Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}
