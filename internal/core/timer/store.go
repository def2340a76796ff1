package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/countdown/internal/core/kv"
	"github.com/hay-kot/countdown/internal/core/logging"
)

// maxIDAttempts bounds regeneration when an id source returns an id that is
// already in use.
const maxIDAttempts = 3

// Default storage keys.
const (
	DefaultTimersKey  = "timers"
	DefaultHistoryKey = "history"
)

// BackupMarker separates a key from the timestamp of its corrupt-data backup.
const BackupMarker = ".corrupt."

// Keys names the two storage keys the store owns.
type Keys struct {
	Timers  string
	History string
}

// StoreOptions configures a Store. Zero values select defaults.
type StoreOptions struct {
	Keys       Keys
	TimeFormat string
	IDs        IDSource
	Logger     *zerolog.Logger
	Now        func() time.Time
}

// Store persists the timer collection and the completion history through a
// kv.KV. Every mutation writes the full collection back; the in-memory copy
// remains the source of truth when a write fails, and the next mutation
// retries it.
//
// Stored bytes that fail to parse are reported as *StorageCorruptError and
// treated as an empty collection. They are copied to a backup key before the
// first write replaces them.
type Store struct {
	kv         kv.KV
	keys       Keys
	timeFormat string
	ids        IDSource
	logger     zerolog.Logger
	now        func() time.Time

	mu             sync.Mutex
	timers         []Timer
	loaded         bool
	unpersisted    bool
	pendingHistory []HistoryEntry
	corrupt        map[string]string // key -> raw bytes awaiting backup
}

// NewStore creates a store over the given key-value capability.
func NewStore(store kv.KV, opts StoreOptions) *Store {
	if opts.Keys.Timers == "" {
		opts.Keys.Timers = DefaultTimersKey
	}
	if opts.Keys.History == "" {
		opts.Keys.History = DefaultHistoryKey
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}
	if opts.IDs == nil {
		opts.IDs = UUIDSource{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := logging.Component("store")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Store{
		kv:         store,
		keys:       opts.Keys,
		timeFormat: opts.TimeFormat,
		ids:        opts.IDs,
		logger:     logger,
		now:        opts.Now,
		corrupt:    make(map[string]string),
	}
}

// TimeFormat returns the layout used for history timestamps.
func (s *Store) TimeFormat() string {
	return s.timeFormat
}

// Unpersisted reports whether an in-memory change has not reached storage.
func (s *Store) Unpersisted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unpersisted || len(s.pendingHistory) > 0
}

// LoadTimers reads the persisted timer collection. A missing key yields an
// empty collection. While a failed write is pending the in-memory collection
// is returned instead of the stale stored one.
func (s *Store) LoadTimers(ctx context.Context) ([]Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.unpersisted {
		return slices.Clone(s.timers), nil
	}

	timers, err := s.readTimers(ctx)
	if err != nil {
		if IsCorrupt(err) {
			s.timers = nil
			s.loaded = true
		}
		return nil, err
	}

	s.timers = timers
	s.loaded = true
	return slices.Clone(timers), nil
}

// SaveTimers replaces the persisted collection with timers.
func (s *Store) SaveTimers(ctx context.Context, timers []Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkTimers(timers); err != nil {
		return &ValidationError{Err: err}
	}

	s.timers = slices.Clone(timers)
	s.loaded = true
	return s.writeTimers(ctx)
}

// Get returns the timer with the given id.
func (s *Store) Get(ctx context.Context, id string) (Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return Timer{}, err
	}

	i := s.indexOf(id)
	if i < 0 {
		return Timer{}, fmt.Errorf("get timer %q: %w", id, ErrNotFound)
	}
	return s.timers[i], nil
}

// AddTimer validates the input, creates an idle timer with the full duration
// remaining, appends it to the collection and persists. Invalid input returns
// a *ValidationError and leaves the collection untouched. A failed write
// returns the created timer together with a *StorageWriteError.
func (s *Store) AddTimer(ctx context.Context, name string, duration int, category string) (Timer, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)

	if err := Validate(name, duration, category); err != nil {
		return Timer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return Timer{}, err
	}

	id, err := s.freshID()
	if err != nil {
		return Timer{}, err
	}

	t := Timer{
		ID:        id,
		Name:      name,
		Category:  category,
		Duration:  duration,
		Remaining: duration,
		Running:   false,
	}
	s.timers = append(s.timers, t)

	if err := s.writeTimers(ctx); err != nil {
		return t, err
	}

	s.logger.Debug().Ctx(logging.WithTimerID(ctx, t.ID)).Str("name", t.Name).Msg("timer added")
	return t, nil
}

// UpdateTimer replaces the stored record with the same id and persists.
// Unknown ids fail with ErrNotFound without writing. Duration is immutable.
func (s *Store) UpdateTimer(ctx context.Context, t Timer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.indexOf(t.ID)
	if i < 0 {
		return fmt.Errorf("update timer %q: %w", t.ID, ErrNotFound)
	}
	if t.Duration != s.timers[i].Duration {
		return &ValidationError{Err: fmt.Errorf("duration is immutable (%d != %d)", t.Duration, s.timers[i].Duration)}
	}
	if err := checkRecord(t); err != nil {
		return &ValidationError{Err: err}
	}

	s.timers[i] = t
	return s.writeTimers(ctx)
}

// DeleteTimer removes a timer and persists. History is not affected.
func (s *Store) DeleteTimer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete timer %q: %w", id, ErrNotFound)
	}

	s.timers = slices.Delete(s.timers, i, i+1)
	return s.writeTimers(ctx)
}

// GroupByCategory is GroupByCategory exposed on the store for callers that
// only hold a *Store.
func (s *Store) GroupByCategory(timers []Timer) []Group {
	return GroupByCategory(timers)
}

// LoadHistory reads the completion history, oldest first. Entries whose
// write is still pending are included at the end.
func (s *Store) LoadHistory(ctx context.Context) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.readRaw(ctx, s.keys.History)
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	if raw != "" {
		entries, err = DecodeHistory(raw)
		if err != nil {
			return nil, s.markCorrupt(s.keys.History, raw, err)
		}
	}

	return append(entries, s.pendingHistory...), nil
}

// AppendHistory reads the current history, appends entry and writes the log
// back. Existing records are written back byte-for-byte. If the stored log is
// corrupt it is backed up and replaced by a fresh log.
func (s *Store) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendHistory(ctx, entry)
}

// RecordCompletion handles a completion event: it appends the history entry
// and persists the timer as finished (remaining 0, not running). Both steps
// are attempted and their errors joined.
func (s *Store) RecordCompletion(ctx context.Context, c Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	if err := s.appendHistory(ctx, c.Entry(s.timeFormat)); err != nil {
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}

	if err := s.markFinished(ctx, c.ID); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *Store) markFinished(ctx context.Context, id string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("finish timer %q: %w", id, ErrNotFound)
	}

	s.timers[i].Remaining = 0
	s.timers[i].Running = false
	return s.writeTimers(ctx)
}

func (s *Store) appendHistory(ctx context.Context, entry HistoryEntry) error {
	s.pendingHistory = append(s.pendingHistory, entry)
	if err := s.flushHistory(ctx); err != nil {
		return err
	}

	s.logger.Debug().Ctx(logging.WithTimerID(ctx, entry.ID)).Str("name", entry.Name).Msg("history appended")
	return nil
}

// flushHistory appends the pending entries to the stored log in one write.
// They stay pending if the read or the write fails.
func (s *Store) flushHistory(ctx context.Context) error {
	if len(s.pendingHistory) == 0 {
		return nil
	}

	pending, err := marshalHistory(s.pendingHistory)
	if err != nil {
		return err
	}

	stored, err := s.readRaw(ctx, s.keys.History)
	if err != nil {
		return err
	}

	var raws []json.RawMessage
	if stored != "" {
		raws, err = decodeHistoryRaw(stored)
		if err != nil {
			_ = s.markCorrupt(s.keys.History, stored, err)
			raws = nil
		}
	}

	if err := s.write(ctx, s.keys.History, joinRaw(append(raws, pending...))); err != nil {
		return err
	}

	s.pendingHistory = nil
	return nil
}

// Flush retries every write that failed earlier: the timer collection, if
// it is out of date, and any pending history entries. Both are attempted
// and their errors joined.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if len(s.pendingHistory) > 0 {
		if err := s.flushHistory(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush history: %w", err))
		} else {
			s.logger.Info().Msg("pending history written")
		}
	}
	if s.unpersisted {
		if err := s.writeTimers(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush timers: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Backups lists the corrupt-data backup keys left behind for the timers and
// history keys. Stores whose backend cannot enumerate keys report none.
func (s *Store) Backups(ctx context.Context) ([]string, error) {
	lister, ok := s.kv.(kv.Lister)
	if !ok {
		return nil, nil
	}

	keys, err := lister.Keys(ctx)
	if err != nil {
		return nil, &StorageReadError{Key: "*", Err: err}
	}

	var backups []string
	for _, k := range keys {
		if strings.HasPrefix(k, s.keys.Timers+BackupMarker) || strings.HasPrefix(k, s.keys.History+BackupMarker) {
			backups = append(backups, k)
		}
	}
	return backups, nil
}

// ensureLoaded reads the collection once. Corrupt data has already been
// logged by readTimers and falls back to an empty collection.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	timers, err := s.readTimers(ctx)
	if err != nil && !IsCorrupt(err) {
		return err
	}

	s.timers = timers
	s.loaded = true
	return nil
}

func (s *Store) readTimers(ctx context.Context) ([]Timer, error) {
	raw, err := s.readRaw(ctx, s.keys.Timers)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	timers, err := DecodeTimers(raw)
	if err != nil {
		return nil, s.markCorrupt(s.keys.Timers, raw, err)
	}
	return timers, nil
}

// readRaw returns "" for a missing key.
func (s *Store) readRaw(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if kv.IsNotFound(err) {
			return "", nil
		}
		return "", &StorageReadError{Key: key, Err: err}
	}
	return strings.TrimSpace(raw), nil
}

func (s *Store) markCorrupt(key, raw string, cause error) error {
	s.corrupt[key] = raw
	s.logger.Error().Err(cause).Str("key", key).Msg("stored data is corrupt, using an empty collection")
	return &StorageCorruptError{Key: key, Err: cause}
}

func (s *Store) writeTimers(ctx context.Context) error {
	data, err := EncodeTimers(s.timers)
	if err != nil {
		s.unpersisted = true
		return fmt.Errorf("encode timers: %w", err)
	}

	if err := s.write(ctx, s.keys.Timers, data); err != nil {
		s.unpersisted = true
		return err
	}

	s.unpersisted = false
	return nil
}

// write backs up corrupt bytes under key, if any, then replaces the value.
func (s *Store) write(ctx context.Context, key, data string) error {
	if raw, ok := s.corrupt[key]; ok {
		backup := key + BackupMarker + s.now().Format("20060102-150405")
		if err := s.kv.Set(ctx, backup, raw); err != nil {
			return &StorageWriteError{Key: backup, Err: err}
		}
		delete(s.corrupt, key)
		s.logger.Warn().Str("key", key).Str("backup", backup).Msg("backed up corrupt data before overwriting")
	}

	if err := s.kv.Set(ctx, key, data); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("write failed, keeping in-memory state")
		return &StorageWriteError{Key: key, Err: err}
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.timers, func(t Timer) bool { return t.ID == id })
}

func (s *Store) freshID() (string, error) {
	for range maxIDAttempts {
		id, err := s.ids.NewID()
		if err != nil {
			return "", err
		}
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique timer id after %d attempts", maxIDAttempts)
}
