package countdown

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/hay-kot/countdown/internal/core/config"
	"github.com/hay-kot/countdown/internal/core/eventbus"
	"github.com/hay-kot/countdown/internal/core/kv"
	"github.com/hay-kot/countdown/internal/core/logging"
	"github.com/hay-kot/countdown/internal/core/timer"
	"github.com/hay-kot/countdown/internal/data/db"
	"github.com/hay-kot/countdown/internal/data/stores"
	"github.com/hay-kot/countdown/internal/store/jsonfile"
)

// App is the central entry point for countdown operations. Commands consume
// App instead of cherry-picking raw dependencies.
type App struct {
	Timers *Service
	Bus    *eventbus.EventBus
	Config *config.Config

	// Backend describes where data lives, for display.
	Backend string

	db *db.DB
}

// AppOptions selects how NewApp builds storage.
type AppOptions struct {
	// Ephemeral keeps everything in memory.
	Ephemeral bool
	// BusBuffer sizes the event bus queue. Defaults to 64.
	BusBuffer int
}

// NewApp opens the configured storage backend and assembles the service.
// The caller starts the bus and must call Close.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	backend, desc, database, err := openBackend(cfg, opts.Ephemeral)
	if err != nil {
		return nil, err
	}

	if opts.BusBuffer <= 0 {
		opts.BusBuffer = 64
	}
	bus := eventbus.New(opts.BusBuffer)

	storeLog := logging.Component("store")
	store := timer.NewStore(kv.Scoped(backend, cfg.Storage.Namespace), timer.StoreOptions{
		Keys:       cfg.Keys(),
		TimeFormat: cfg.History.TimeFormat,
		Logger:     &storeLog,
	})

	return &App{
		Timers:  NewService(store, bus, logging.Component("countdown")),
		Bus:     bus,
		Config:  cfg,
		Backend: desc,
		db:      database,
	}, nil
}

// Close releases the database, if one was opened. Pending in-memory changes
// that never reached storage are logged.
func (a *App) Close() error {
	if a.Timers != nil && a.Timers.Store().Unpersisted() {
		logging.Component("countdown").Warn().Msg("closing with changes that were never persisted")
	}
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Flush retries writes that failed earlier in the process: the timer
// collection and any completion history that did not reach storage.
func (a *App) Flush(ctx context.Context) error {
	if a.Timers == nil {
		return nil
	}
	return a.Timers.Store().Flush(ctx)
}

func openBackend(cfg *config.Config, ephemeral bool) (kv.KV, string, *db.DB, error) {
	if ephemeral {
		return kv.NewMemory(), "memory", nil, nil
	}

	switch cfg.Storage.Backend {
	case config.BackendFile:
		return jsonfile.NewKVStore(cfg.StoreDir()), cfg.StoreDir(), nil, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, "", nil, fmt.Errorf("create data dir: %w", err)
		}

		dbLog := logging.Component("db")
		database, backup, err := stores.OpenWithRecovery(cfg.DataDir, db.OpenOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			BusyTimeout:  cfg.Database.BusyTimeout,
			Logger:       &dbLog,
		})
		if err != nil {
			return nil, "", nil, fmt.Errorf("open database: %w", err)
		}
		if backup != "" {
			dbLog.Warn().Str("backup", backup).Msg("database was corrupt, moved aside and recreated")
		}
		return stores.NewKVStore(database), database.Path(), database, nil
	default:
		return nil, "", nil, errors.New("unknown storage backend " + string(cfg.Storage.Backend))
	}
}
