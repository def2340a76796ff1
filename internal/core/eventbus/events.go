// Package eventbus provides a typed publish/subscribe event bus that lets
// the presentation layer observe timer lifecycle changes without owning
// timer state.
package eventbus

import (
	"github.com/hay-kot/countdown/internal/core/timer"
)

// Event names a bus event.
type Event string

// Keep list sorted A-Z
const (
	EventNotificationPublished Event = "notification.published"
	EventStorageCorrupted      Event = "storage.corrupted"
	EventTimerCompleted        Event = "timer.completed"
	EventTimerCreated          Event = "timer.created"
	EventTimerDeleted          Event = "timer.deleted"
	EventTimerStateChanged     Event = "timer.state-changed"
)

// Level is the severity of a user-facing notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// TimerCreatedPayload is emitted when a new timer is added.
type TimerCreatedPayload struct {
	Timer timer.Timer
}

// TimerDeletedPayload is emitted when a timer is removed.
type TimerDeletedPayload struct {
	Timer timer.Timer
}

// TimerStateChangedPayload is emitted on start, pause and reset.
type TimerStateChangedPayload struct {
	Timer    timer.Timer
	OldState timer.State
	NewState timer.State
}

// TimerCompletedPayload is emitted after a completion has been recorded.
// Err is non-nil when persisting the completion failed.
type TimerCompletedPayload struct {
	Completion timer.Completion
	Entry      timer.HistoryEntry
	Err        error
}

// StorageCorruptedPayload is emitted when stored data failed to parse.
type StorageCorruptedPayload struct {
	Key string
	Err error
}

// NotificationPublishedPayload is a user-facing message derived from other events.
type NotificationPublishedPayload struct {
	Level   Level
	Message string
}
