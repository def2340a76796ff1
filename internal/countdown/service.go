// Package countdown wires timer engines to storage, tick sources and the
// event bus.
package countdown

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/countdown/internal/core/eventbus"
	"github.com/hay-kot/countdown/internal/core/logging"
	"github.com/hay-kot/countdown/internal/core/timer"
)

var (
	// ErrAmbiguous is returned by Resolve when a name matches several timers.
	ErrAmbiguous = errors.New("ambiguous timer reference")
	// ErrRunning is returned by Run when the timer is already being driven.
	ErrRunning = errors.New("timer is already running")
)

// Service owns one engine per timer and keeps the store in step with engine
// transitions. Remaining seconds reach the store on start, pause, reset and
// completion; individual ticks only touch the engine.
type Service struct {
	store *timer.Store
	bus   *eventbus.EventBus
	log   zerolog.Logger
	now   func() time.Time

	mu         sync.Mutex
	engines    map[string]*timer.Engine
	runs       map[string]bool
	completeEr map[string]error
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to timestamp completions.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a service. bus may be nil.
func NewService(store *timer.Store, bus *eventbus.EventBus, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		bus:        bus,
		log:        log,
		now:        time.Now,
		engines:    make(map[string]*timer.Engine),
		runs:       make(map[string]bool),
		completeEr: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying timer store.
func (s *Service) Store() *timer.Store {
	return s.store
}

// List returns all timers in insertion order. Running engines report their
// live remaining time. Corrupt stored data is reported on the bus and yields
// an empty list.
func (s *Service) List(ctx context.Context) ([]timer.Timer, error) {
	timers, err := s.store.LoadTimers(ctx)
	if err != nil {
		if !s.reportCorrupt(err) {
			return nil, fmt.Errorf("load timers: %w", err)
		}
		timers = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range timers {
		if e, ok := s.engines[t.ID]; ok {
			timers[i] = e.Timer()
		}
	}
	return timers, nil
}

// Groups returns the timers grouped by category.
func (s *Service) Groups(ctx context.Context) ([]timer.Group, error) {
	timers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return timer.GroupByCategory(timers), nil
}

// History returns completion history, oldest first. Corrupt stored data is
// reported on the bus and yields an empty log.
func (s *Service) History(ctx context.Context) ([]timer.HistoryEntry, error) {
	entries, err := s.store.LoadHistory(ctx)
	if err != nil {
		if !s.reportCorrupt(err) {
			return nil, fmt.Errorf("load history: %w", err)
		}
		return nil, nil
	}
	return entries, nil
}

// Create adds a timer. When the write fails the timer still exists in memory
// and is returned together with the error.
func (s *Service) Create(ctx context.Context, name string, duration int, category string) (timer.Timer, error) {
	t, err := s.store.AddTimer(ctx, name, duration, category)
	if t.ID == "" {
		return t, err
	}

	s.log.Info().Ctx(logging.WithTimerID(ctx, t.ID)).
		Str("timer", t.Name).
		Str("category", t.Category).
		Int("duration", t.Duration).
		Msg("timer created")
	s.publish(func(bus *eventbus.EventBus) {
		bus.PublishTimerCreated(eventbus.TimerCreatedPayload{Timer: t})
	})
	return t, err
}

// Resolve finds a timer by exact id, then by case-insensitive name.
func (s *Service) Resolve(ctx context.Context, ref string) (timer.Timer, error) {
	ref = strings.TrimSpace(ref)

	timers, err := s.List(ctx)
	if err != nil {
		return timer.Timer{}, err
	}

	var matches []timer.Timer
	for _, t := range timers {
		if t.ID == ref {
			return t, nil
		}
		if strings.EqualFold(t.Name, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return timer.Timer{}, fmt.Errorf("timer %q: %w", ref, timer.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return timer.Timer{}, fmt.Errorf("%w: %d timers named %q, use an id", ErrAmbiguous, len(matches), ref)
	}
}

// Snapshot returns the live state of a timer's engine.
func (s *Service) Snapshot(ctx context.Context, id string) (timer.Snapshot, error) {
	e, err := s.engine(ctx, id)
	if err != nil {
		return timer.Snapshot{}, err
	}
	return e.Snapshot(), nil
}

// Start moves a timer to running and persists the transition. It returns the
// epoch that ticks for this run must carry.
func (s *Service) Start(ctx context.Context, id string) (uint64, error) {
	e, err := s.engine(ctx, id)
	if err != nil {
		return 0, err
	}

	old := e.State()
	epoch, err := e.Start()
	if err != nil {
		return epoch, fmt.Errorf("start timer %q: %w", id, err)
	}
	if old == timer.StateRunning {
		return epoch, nil
	}

	return epoch, s.transition(ctx, e, old)
}

// Pause stops a running timer and persists its remaining time. Pausing a
// timer that is not running does nothing.
func (s *Service) Pause(ctx context.Context, id string) error {
	e, err := s.engine(ctx, id)
	if err != nil {
		return err
	}

	if !e.Pause() {
		return nil
	}
	return s.transition(ctx, e, timer.StateRunning)
}

// Reset restores the full duration from any state.
func (s *Service) Reset(ctx context.Context, id string) error {
	e, err := s.engine(ctx, id)
	if err != nil {
		return err
	}

	old := e.State()
	e.Reset()
	return s.transition(ctx, e, old)
}

// Delete removes a timer. A running engine is paused first so its run loop
// exits on the next tick.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if e, ok := s.engines[id]; ok {
		e.Pause()
		delete(s.engines, id)
	}
	s.mu.Unlock()

	if err := s.store.DeleteTimer(ctx, id); err != nil {
		return err
	}

	s.log.Info().Ctx(logging.WithTimerID(ctx, t.ID)).Str("timer", t.Name).Msg("timer deleted")
	s.publish(func(bus *eventbus.EventBus) {
		bus.PublishTimerDeleted(eventbus.TimerDeletedPayload{Timer: t})
	})
	return nil
}

// Run starts the timer and feeds it ticks from src until the timer stops
// running or ctx is cancelled. Cancelling ctx pauses the timer and persists
// its remaining time; Run then returns ctx.Err(). A completed run returns
// the error, if any, from recording the completion. src is stopped on exit.
func (s *Service) Run(ctx context.Context, id string, src TickSource) error {
	defer src.Stop()
	ctx = logging.WithTimerID(ctx, id)

	s.mu.Lock()
	if s.runs[id] {
		s.mu.Unlock()
		return fmt.Errorf("run timer %q: %w", id, ErrRunning)
	}
	s.runs[id] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.runs, id)
		s.mu.Unlock()
	}()

	epoch, err := s.Start(ctx, id)
	if err != nil {
		var werr *timer.StorageWriteError
		if !errors.As(err, &werr) {
			return err
		}
		s.log.Warn().Ctx(ctx).Err(err).Msg("start not persisted, running anyway")
	}

	e, err := s.engine(ctx, id)
	if err != nil {
		return err
	}
	s.log.Debug().Ctx(ctx).Uint64("epoch", epoch).Msg("run started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Ctx(ctx).Msg("run cancelled, pausing")
			if e.Pause() {
				if err := s.transition(context.WithoutCancel(ctx), e, timer.StateRunning); err != nil {
					return errors.Join(ctx.Err(), err)
				}
			}
			return ctx.Err()
		case <-src.C():
			e.TickEpoch(epoch)

			snap := e.Snapshot()
			switch {
			case snap.State == timer.StateCompleted:
				return s.takeCompletionErr(id)
			case snap.State != timer.StateRunning || snap.Epoch != epoch:
				// paused, reset or deleted elsewhere
				return nil
			}
		}
	}
}

// engine returns the cached engine for id, creating it from the stored timer.
func (s *Service) engine(ctx context.Context, id string) (*timer.Engine, error) {
	s.mu.Lock()
	e, ok := s.engines[id]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.engines[id]; ok {
		return e, nil
	}

	e = timer.NewEngine(t, timer.WithClock(s.now))
	e.OnComplete(s.complete)
	s.engines[id] = e
	return e, nil
}

// complete runs on the ticking goroutine after the engine lock is released.
// The completion is recorded even when the run's context is already done.
func (s *Service) complete(c timer.Completion) {
	ctx := logging.WithTimerID(context.Background(), c.ID)
	err := s.store.RecordCompletion(ctx, c)

	// A reset or restart can land between the engine completing and this
	// handler; RecordCompletion has then overwritten its persisted state.
	s.mu.Lock()
	e := s.engines[c.ID]
	s.mu.Unlock()
	if e != nil && e.State() != timer.StateCompleted {
		if uerr := s.store.UpdateTimer(ctx, e.Timer()); uerr != nil {
			err = errors.Join(err, fmt.Errorf("persist timer %q: %w", c.ID, uerr))
		}
	}

	if err != nil {
		s.log.Error().Ctx(ctx).Str("timer", c.Name).Err(err).Msg("completion not fully recorded")
	} else {
		s.log.Info().Ctx(ctx).Str("timer", c.Name).Msg("timer completed")
	}

	s.mu.Lock()
	if err != nil {
		s.completeEr[c.ID] = err
	} else {
		delete(s.completeEr, c.ID)
	}
	s.mu.Unlock()

	s.publish(func(bus *eventbus.EventBus) {
		bus.PublishTimerCompleted(eventbus.TimerCompletedPayload{
			Completion: c,
			Entry:      c.Entry(s.store.TimeFormat()),
			Err:        err,
		})
	})
}

func (s *Service) takeCompletionErr(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.completeEr[id]
	delete(s.completeEr, id)
	return err
}

// transition persists the engine's timer record and announces the change.
func (s *Service) transition(ctx context.Context, e *timer.Engine, old timer.State) error {
	t := e.Timer()
	snap := e.Snapshot()

	err := s.store.UpdateTimer(ctx, t)

	s.log.Debug().Ctx(logging.WithTimerID(ctx, t.ID)).
		Str("timer", t.Name).
		Str("from", string(old)).
		Str("to", string(snap.State)).
		Int("remaining", t.Remaining).
		Msg("timer state changed")

	s.publish(func(bus *eventbus.EventBus) {
		bus.PublishTimerStateChanged(eventbus.TimerStateChangedPayload{
			Timer:    t,
			OldState: old,
			NewState: snap.State,
		})
	})

	if err != nil {
		return fmt.Errorf("persist timer %q: %w", t.ID, err)
	}
	return nil
}

func (s *Service) reportCorrupt(err error) bool {
	var cerr *timer.StorageCorruptError
	if !errors.As(err, &cerr) {
		return false
	}
	s.publish(func(bus *eventbus.EventBus) {
		bus.PublishStorageCorrupted(eventbus.StorageCorruptedPayload{Key: cerr.Key, Err: cerr.Err})
	})
	return true
}

func (s *Service) publish(fn func(*eventbus.EventBus)) {
	if s.bus != nil {
		fn(s.bus)
	}
}
