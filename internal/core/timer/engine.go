package timer

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time view of an Engine.
type Snapshot struct {
	ID        string
	Name      string
	Duration  int
	Remaining int
	State     State
	Epoch     uint64
}

// Progress returns the fraction of the duration still remaining.
func (s Snapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Remaining) / float64(s.Duration)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the clock used to timestamp completions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

type completionHandler struct {
	id int
	fn func(Completion)
}

// Engine runs the countdown state machine for a single timer.
//
// Every transition into or out of StateRunning advances the engine's epoch.
// TickEpoch only applies ticks carrying the current epoch, so a tick source
// that fires after Pause, Reset or completion can never decrement the timer.
//
// The engine performs no I/O. Completion handlers are called synchronously,
// after the internal lock is released.
type Engine struct {
	mu       sync.Mutex
	timer    Timer
	state    State
	epoch    uint64
	handlers []completionHandler
	nextID   int
	now      func() time.Time
}

// NewEngine creates an engine for t. The duration is assumed to be valid.
// Remaining is clamped into [0, Duration]; a timer at zero starts completed
// and a timer persisted as running is restored idle.
func NewEngine(t Timer, opts ...EngineOption) *Engine {
	t.Remaining = max(0, min(t.Remaining, t.Duration))
	t.Running = false

	state := StateIdle
	if t.Remaining == 0 {
		state = StateCompleted
	}

	e := &Engine{
		timer: t,
		state: state,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start moves an idle engine to running and returns the epoch of the new run.
// Starting a running engine is a no-op returning the current epoch. Starting a
// completed engine fails with ErrCompleted; Reset it first.
func (e *Engine) Start() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateRunning:
		return e.epoch, nil
	case StateCompleted:
		return e.epoch, ErrCompleted
	}

	e.epoch++
	e.state = StateRunning
	e.timer.Running = true
	return e.epoch, nil
}

// Pause stops a running engine, preserving the remaining seconds. It reports
// whether a transition happened.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateRunning {
		return false
	}

	e.epoch++
	e.state = StateIdle
	e.timer.Running = false
	return true
}

// Reset restores the full duration and returns the engine to idle from any
// state, re-arming completion.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	e.state = StateIdle
	e.timer.Remaining = e.timer.Duration
	e.timer.Running = false
}

// Tick applies one elapsed second to a running engine. It reports whether
// the tick was applied; ticks outside StateRunning are ignored.
func (e *Engine) Tick() bool {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return false
	}
	return e.tickLocked()
}

// TickEpoch is Tick restricted to the run identified by epoch.
func (e *Engine) TickEpoch(epoch uint64) bool {
	e.mu.Lock()
	if e.state != StateRunning || e.epoch != epoch {
		e.mu.Unlock()
		return false
	}
	return e.tickLocked()
}

// tickLocked must be called with e.mu held; it releases the lock.
func (e *Engine) tickLocked() bool {
	e.timer.Remaining--
	if e.timer.Remaining > 0 {
		e.mu.Unlock()
		return true
	}

	e.epoch++
	e.state = StateCompleted
	e.timer.Running = false

	c := Completion{
		ID:   e.timer.ID,
		Name: e.timer.Name,
		Time: e.now(),
	}
	handlers := make([]completionHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h.fn(c)
	}
	return true
}

// OnComplete registers fn to be called on every Running -> Completed
// transition. The returned function removes the subscription.
func (e *Engine) OnComplete(fn func(Completion)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.handlers = append(e.handlers, completionHandler{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, h := range e.handlers {
			if h.id == id {
				e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
				return
			}
		}
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the engine's current remaining time and state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		ID:        e.timer.ID,
		Name:      e.timer.Name,
		Duration:  e.timer.Duration,
		Remaining: e.timer.Remaining,
		State:     e.state,
		Epoch:     e.epoch,
	}
}

// Timer returns the timer record reflecting the engine's current state.
func (e *Engine) Timer() Timer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer
}
