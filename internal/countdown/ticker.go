package countdown

import "time"

// TickInterval is the time represented by one engine tick.
const TickInterval = time.Second

// TickSource delivers ticks to a running timer. Stop releases the source;
// it may be called more than once.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// Ticker is a TickSource backed by a time.Ticker.
type Ticker struct {
	t *time.Ticker
}

var _ TickSource = (*Ticker)(nil)

// NewTicker returns a ticker firing every interval.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(interval)}
}

func (t *Ticker) C() <-chan time.Time { return t.t.C }
func (t *Ticker) Stop()               { t.t.Stop() }
