package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ecotally/ecotally/internal/config"
	"github.com/ecotally/ecotally/internal/engine"
	"github.com/ecotally/ecotally/internal/engine/cache"
	"github.com/ecotally/ecotally/internal/factors"
	"github.com/ecotally/ecotally/internal/jobs"
	"github.com/ecotally/ecotally/internal/metrics"
	"github.com/ecotally/ecotally/internal/resultsync"
	"github.com/ecotally/ecotally/internal/service"
	"github.com/ecotally/ecotally/internal/store"
	"github.com/ecotally/ecotally/internal/verified"
)

// app holds everything a command needs after bootstrap: the assembled
// service plus the handles commands occasionally reach past it for.
type app struct {
	cfg     config.Config
	svc     *service.Service
	syncer  *resultsync.Syncer
	metrics *metrics.Collector
	model   *factors.Model
	log     zerolog.Logger

	closers []func() error
}

// close releases resources in reverse acquisition order after flushing
// pending result writes.
func (a *app) close() error {
	a.syncer.Flush()
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// loadModel picks the factor table: an external YAML dataset when configured,
// otherwise the built-in table.
func loadModel(cfg config.Config) (*factors.Model, error) {
	if cfg.Factors.Dataset == "" {
		return factors.Builtin(), nil
	}
	model, err := factors.LoadDataset(cfg.Factors.Dataset)
	if err != nil {
		return nil, fmt.Errorf("loading factor dataset %s: %w", cfg.Factors.Dataset, err)
	}
	return model, nil
}

// buildApp assembles the full calculation stack from configuration. Every
// collaborator is constructed here and handed down; nothing is global.
func buildApp(cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	model, err := loadModel(cfg)
	if err != nil {
		return nil, err
	}
	a.model = model

	a.metrics = metrics.NewCollector()

	// The verified evaluator is only wired when a backend URL is
	// configured; the engine treats a nil evaluator as tier-unavailable.
	var evaluator verified.Evaluator
	if cfg.Verified.URL != "" {
		evaluator = verified.NewClient(cfg.Verified.URL, cfg.Verified.VerifiedTimeout(), log)
	}

	eng := engine.New(model, evaluator, log, a.metrics)

	var distributed cache.Distributed
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		if err := os.MkdirAll(cfg.Cache.Dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		fs, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening shared cache: %w", err)
		}
		distributed = fs
	}
	cacheMgr := cache.NewManager(cache.ManagerOptions{
		MemoryCapacity:     cfg.Cache.MemoryCapacity,
		MemoryTTL:          cfg.Cache.MemoryTTL(),
		Distributed:        distributed,
		DistributedTTL:     cfg.Cache.SharedTTL(),
		DistributedTimeout: cfg.Cache.Timeout(),
		Logger:             log,
		Metrics:            a.metrics,
	})

	st, err := openStore(cfg, a)
	if err != nil {
		return nil, err
	}

	a.syncer = resultsync.New(st, 0, log, a.metrics)

	a.svc = service.New(service.Deps{
		Engine:   eng,
		Cache:    cacheMgr,
		JobStore: st,
		Syncer:   a.syncer,
		Jobs: jobs.Config{
			Workers:          cfg.Jobs.Workers,
			MaxAttempts:      cfg.Jobs.MaxAttempts,
			BackoffBase:      cfg.Jobs.BackoffBase(),
			OffloadLineItems: cfg.Jobs.OffloadLineItems,
		},
		Logger:  log,
		Metrics: a.metrics,
	})
	return a, nil
}

// persistentStore is the union of the job and result persistence the store
// package implements for both backends.
type persistentStore interface {
	jobs.Store
	resultsync.ResultStore
}

// openStore opens the SQLite store at the configured path, or an in-memory
// store when no path is set.
func openStore(cfg config.Config, a *app) (persistentStore, error) {
	if cfg.Store.Path == "" {
		return store.NewMemory(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	db, err := store.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Store.Path, err)
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// appFromCommand rebuilds the app for the invoked command using the config
// and logger the root command placed on the context.
func appFromCommand(cmd *cobra.Command) (*app, error) {
	cfg := configFromContext(cmd.Context())
	log := zerolog.Ctx(cmd.Context())
	return buildApp(cfg, *log)
}
