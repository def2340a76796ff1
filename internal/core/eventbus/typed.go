package eventbus

// PublishNotificationPublished publishes a notification.published event.
func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

// SubscribeNotificationPublished registers fn for notification.published events.
func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

// PublishStorageCorrupted publishes a storage.corrupted event.
func (bus *EventBus) PublishStorageCorrupted(p StorageCorruptedPayload) {
	bus.send(EventStorageCorrupted, p)
}

// SubscribeStorageCorrupted registers fn for storage.corrupted events.
func (bus *EventBus) SubscribeStorageCorrupted(fn func(StorageCorruptedPayload)) {
	bus.subscribe(EventStorageCorrupted, func(p any) { fn(p.(StorageCorruptedPayload)) })
}

// PublishTimerCompleted publishes a timer.completed event.
func (bus *EventBus) PublishTimerCompleted(p TimerCompletedPayload) {
	bus.send(EventTimerCompleted, p)
}

// SubscribeTimerCompleted registers fn for timer.completed events.
func (bus *EventBus) SubscribeTimerCompleted(fn func(TimerCompletedPayload)) {
	bus.subscribe(EventTimerCompleted, func(p any) { fn(p.(TimerCompletedPayload)) })
}

// PublishTimerCreated publishes a timer.created event.
func (bus *EventBus) PublishTimerCreated(p TimerCreatedPayload) {
	bus.send(EventTimerCreated, p)
}

// SubscribeTimerCreated registers fn for timer.created events.
func (bus *EventBus) SubscribeTimerCreated(fn func(TimerCreatedPayload)) {
	bus.subscribe(EventTimerCreated, func(p any) { fn(p.(TimerCreatedPayload)) })
}

// PublishTimerDeleted publishes a timer.deleted event.
func (bus *EventBus) PublishTimerDeleted(p TimerDeletedPayload) {
	bus.send(EventTimerDeleted, p)
}

// SubscribeTimerDeleted registers fn for timer.deleted events.
func (bus *EventBus) SubscribeTimerDeleted(fn func(TimerDeletedPayload)) {
	bus.subscribe(EventTimerDeleted, func(p any) { fn(p.(TimerDeletedPayload)) })
}

// PublishTimerStateChanged publishes a timer.state-changed event.
func (bus *EventBus) PublishTimerStateChanged(p TimerStateChangedPayload) {
	bus.send(EventTimerStateChanged, p)
}

// SubscribeTimerStateChanged registers fn for timer.state-changed events.
func (bus *EventBus) SubscribeTimerStateChanged(fn func(TimerStateChangedPayload)) {
	bus.subscribe(EventTimerStateChanged, func(p any) { fn(p.(TimerStateChangedPayload)) })
}
