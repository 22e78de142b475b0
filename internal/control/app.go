// Package control wires configuration into runnable ETL runs.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vietddude/standings/internal/core/config"
	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/etl/health"
	"github.com/vietddude/standings/internal/etl/pipeline"
	"github.com/vietddude/standings/internal/etl/validate"
	"github.com/vietddude/standings/internal/infra/notify"
	redisclient "github.com/vietddude/standings/internal/infra/redis"
	"github.com/vietddude/standings/internal/infra/source"
	"github.com/vietddude/standings/internal/infra/storage"
	"github.com/vietddude/standings/internal/infra/storage/memory"
	"github.com/vietddude/standings/internal/infra/storage/postgres"
	"github.com/vietddude/standings/internal/infra/storage/sqlite"
)

// App is the main application struct that owns the run dependencies.
type App struct {
	cfg          *config.AppConfig
	orchestrator *Orchestrator
	monitor      *health.Monitor
	loader       storage.Loader
	history      storage.HistoryStore
	sinkCheck    func(ctx context.Context) error
	deadLetter   *redisclient.DeadLetter
	closers      []func() error
	log          *slog.Logger
}

// NewApp creates a new App with all dependencies initialized. cfg must
// already be validated.
func NewApp(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (app *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, log: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// 1. Initialize Storage
	st, err := OpenStorage(ctx, cfg.Loader, true, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.Close)
	a.loader, a.history = st.Loader, st.History
	a.sinkCheck = st.Health

	// 2. Initialize Redis dead-letter store
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			logger.Warn("Failed to connect to Redis, dead-letter disabled", "error", err)
		} else {
			a.closers = append(a.closers, client.Close)
			a.deadLetter = redisclient.NewDeadLetter(client, cfg.Redis.TTL)
			logger.Info("Dead-letter store enabled", "ttl", cfg.Redis.TTL)
		}
	}

	// 3. Build sources
	specs, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}

	// 4. Orchestrator and health monitor
	validator := validate.New(nil, validate.DefaultPolicy.Merge(cfg.Validation.Policy))

	var archiver Archiver
	if a.deadLetter != nil {
		archiver = a.deadLetter
	}
	a.orchestrator = NewOrchestrator(
		OrchestratorConfig{
			Season:     cfg.Season,
			Retry:      cfg.Retry,
			Sequential: cfg.Sequential,
			PushURL:    cfg.Metrics.PushURL,
			PushJob:    cfg.Metrics.Job,
		},
		specs,
		validator,
		a.loader,
		buildNotifier(cfg.Notify, logger),
		a.history,
		archiver,
		logger,
	)

	a.setMonitor(health.NewMonitor(nil))

	return a, nil
}

func (a *App) setMonitor(m *health.Monitor) {
	if a.sinkCheck != nil {
		m.SetSinkCheck(a.sinkCheck)
	}
	a.monitor = m
	a.orchestrator.OnReport = m.Observe
}

// Storage bundles the sink and the run history of one loader driver.
type Storage struct {
	Loader  storage.Loader
	History storage.HistoryStore
	// Health pings the sink. Nil for the memory driver.
	Health  func(ctx context.Context) error
	closers []func() error
}

// OpenStorage connects the configured loader driver. With migrate set the
// embedded migrations are applied first.
func OpenStorage(ctx context.Context, cfg config.LoaderConfig, migrate bool, logger *slog.Logger) (_ *Storage, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	st := &Storage{}
	defer func() {
		if err != nil {
			_ = st.Close()
		}
	}()

	switch cfg.Driver {
	case config.DriverPostgres:
		pgCfg := postgres.Config{URL: cfg.DSN, MaxConns: cfg.MaxConns, MinConns: cfg.MinConns}
		db, err := postgres.NewDB(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		loader := postgres.NewLoader(db)
		st.closers = append(st.closers, loader.Close)
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		history, err := postgres.NewHistory(ctx, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init run history: %w", err)
		}
		st.closers = append(st.closers, history.Close)
		st.Loader, st.History = loader, history
		st.Health = db.Health
		logger.Info("Using PostgreSQL storage")

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		if migrate {
			if err := db.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		st.Loader, st.History = db, db
		st.Health = db.Health
		logger.Info("Using SQLite storage", "path", cfg.DSN)

	case config.DriverMemory, "":
		store := memory.NewStorage()
		st.Loader, st.History = store, store
		logger.Info("Using Memory storage")

	default:
		return nil, fmt.Errorf("unknown loader driver %q", cfg.Driver)
	}
	return st, nil
}

// Close releases the storage connections.
func (s *Storage) Close() error {
	return closeAll(&s.closers)
}

func closeAll(closers *[]func() error) error {
	var errs []error
	for i := len(*closers) - 1; i >= 0; i-- {
		if err := (*closers)[i](); err != nil {
			errs = append(errs, err)
		}
	}
	*closers = nil
	return errors.Join(errs...)
}

func buildSources(cfg *config.AppConfig) ([]SourceSpec, error) {
	var specs []SourceSpec
	for _, s := range cfg.EnabledSources() {
		adapter, err := source.New(s.Config, cfg.Season)
		if err != nil {
			return nil, err
		}
		mode, err := cfg.WriteMode(s)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.ID, err)
		}
		mapping, err := cfg.SourceMapping(s)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", s.ID, err)
		}
		specs = append(specs, SourceSpec{
			Adapter: adapter,
			Pipeline: pipeline.Config{
				Source:    s.ID,
				Target:    s.Target,
				WriteMode: mode,
				Mapping:   mapping,
				OutputDir: cfg.OutputDir,
			},
		})
	}
	return specs, nil
}

func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) notify.Notifier {
	var out notify.Multi
	if cfg.SMTP.Enabled() {
		out = append(out, notify.NewSMTP(cfg.SMTP))
	}
	if cfg.Webhook.URL != "" {
		out = append(out, notify.NewWebhook(cfg.Webhook))
	}
	if cfg.Log || len(out) == 0 {
		out = append(out, notify.NewLog(logger))
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// RunOnce executes a single run and returns its report.
func (a *App) RunOnce(ctx context.Context) domain.RunReport {
	return a.orchestrator.Run(ctx)
}

// Orchestrator returns the run orchestrator.
func (a *App) Orchestrator() *Orchestrator { return a.orchestrator }

// Monitor returns the health monitor fed by every finished run.
func (a *App) Monitor() *health.Monitor { return a.monitor }

// History returns the run history store.
func (a *App) History() storage.HistoryStore { return a.history }

// DeadLetter returns the dead-letter store, or nil when Redis is not configured.
func (a *App) DeadLetter() *redisclient.DeadLetter { return a.deadLetter }

// Close releases every opened resource.
func (a *App) Close() error {
	return closeAll(&a.closers)
}
