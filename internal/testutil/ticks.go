package testutil

import (
	"sync"
	"time"
)

// ManualTicks is a tick source driven by the test.
type ManualTicks struct {
	ch chan time.Time

	mu      sync.Mutex
	stopped bool
}

// NewManualTicks creates a source whose channel buffers up to size ticks.
func NewManualTicks(size int) *ManualTicks {
	return &ManualTicks{ch: make(chan time.Time, size)}
}

// C returns the tick channel.
func (m *ManualTicks) C() <-chan time.Time { return m.ch }

// Stop marks the source stopped. Buffered ticks stay in the channel, the way
// a time.Ticker may still hold one pending tick after Stop.
func (m *ManualTicks) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Stopped reports whether Stop has been called.
func (m *ManualTicks) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Tick enqueues n ticks.
func (m *ManualTicks) Tick(n int) {
	for range n {
		m.ch <- time.Now()
	}
}
