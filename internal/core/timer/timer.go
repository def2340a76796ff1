// Package timer defines the countdown timer domain: the Timer and
// HistoryEntry records, the Engine state machine that runs one timer down
// to zero, and the Store that persists timers and completion history.
package timer

import (
	"strings"
	"time"

	"github.com/hay-kot/criterio"
)

// DefaultTimeFormat is the layout used for HistoryEntry.Time.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// State represents the lifecycle state of a running engine.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// Timer is a user-defined countdown task. Duration and Remaining are whole
// seconds.
type Timer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Duration  int    `json:"duration"`
	Remaining int    `json:"remaining"`
	Running   bool   `json:"running"`
}

// Done reports whether the timer has counted down to zero.
func (t Timer) Done() bool {
	return t.Remaining == 0
}

// Progress returns the fraction of the duration still remaining, in [0, 1].
func (t Timer) Progress() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return float64(t.Remaining) / float64(t.Duration)
}

// Elapsed returns the seconds already counted down.
func (t Timer) Elapsed() int {
	return t.Duration - t.Remaining
}

// HistoryEntry is an immutable record of one completed run.
type HistoryEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Time string `json:"time"`
}

// Completion is emitted by an Engine exactly once per Running -> Completed
// transition.
type Completion struct {
	ID   string
	Name string
	Time time.Time
}

// Entry converts the completion into the history record it produces.
func (c Completion) Entry(layout string) HistoryEntry {
	if layout == "" {
		layout = DefaultTimeFormat
	}
	return HistoryEntry{
		ID:   c.ID,
		Name: c.Name,
		Time: c.Time.Format(layout),
	}
}

// Validate checks timer creation input. It returns a *ValidationError
// carrying one field error per invalid input, or nil.
func Validate(name string, duration int, category string) error {
	var errs criterio.FieldErrorsBuilder

	if strings.TrimSpace(name) == "" {
		errs = errs.Append("name", errEmpty)
	}
	if duration <= 0 {
		errs = errs.Append("duration", errNotPositive)
	}
	if strings.TrimSpace(category) == "" {
		errs = errs.Append("category", errEmpty)
	}

	if err := errs.ToError(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
