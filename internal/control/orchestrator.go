package control

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/tracker"
	"github.com/vietddude/standings/internal/etl/extract"
	"github.com/vietddude/standings/internal/etl/metrics"
	"github.com/vietddude/standings/internal/etl/pipeline"
	"github.com/vietddude/standings/internal/etl/report"
	"github.com/vietddude/standings/internal/etl/validate"
	"github.com/vietddude/standings/internal/infra/notify"
	"github.com/vietddude/standings/internal/infra/retry"
	"github.com/vietddude/standings/internal/infra/source"
	"github.com/vietddude/standings/internal/infra/storage"
)

// SourceSpec pairs an adapter with the pipeline settings of its source.
type SourceSpec struct {
	Adapter  source.Adapter
	Pipeline pipeline.Config
}

// Archiver keeps the error events of a run after it finished.
type Archiver interface {
	Archive(ctx context.Context, runID string, at time.Time, events []domain.ErrorEvent) error
}

// OrchestratorConfig holds the run-wide settings.
type OrchestratorConfig struct {
	Season string
	Retry  retry.Config
	// Sequential runs the sources one after another instead of concurrently.
	Sequential bool
	// PushURL, when set, receives the metrics registry after every run.
	PushURL string
	PushJob string
}

// Orchestrator runs every source pipeline, joins them, classifies the run and
// hands the report to the notifier.
type Orchestrator struct {
	cfg       OrchestratorConfig
	sources   []SourceSpec
	validator *validate.Validator
	loader    storage.Loader
	notifier  notify.Notifier
	history   storage.HistoryStore
	archiver  Archiver
	log       *slog.Logger

	// OnReport is called with every finished report.
	OnReport func(domain.RunReport)
}

// NewOrchestrator creates an orchestrator. history and archiver may be nil.
func NewOrchestrator(
	cfg OrchestratorConfig,
	sources []SourceSpec,
	validator *validate.Validator,
	loader storage.Loader,
	notifier notify.Notifier,
	history storage.HistoryStore,
	archiver Archiver,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validate.New(nil, nil)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig
	}
	if cfg.PushJob == "" {
		cfg.PushJob = "standings"
	}
	return &Orchestrator{
		cfg:       cfg,
		sources:   sources,
		validator: validator,
		loader:    loader,
		notifier:  notifier,
		history:   history,
		archiver:  archiver,
		log:       logger,
	}
}

// Run executes one full run. It always returns a report, whatever the
// outcome of the individual sources.
func (o *Orchestrator) Run(ctx context.Context) domain.RunReport {
	runID := uuid.NewString()
	started := time.Now().UTC()
	log := o.log.With("run_id", runID)

	t := tracker.New()
	t.OnRecord = func(e domain.ErrorEvent) {
		metrics.ErrorEventsTotal.WithLabelValues(string(e.Source), string(e.Category)).Inc()
	}

	log.Info("Run started", "season", o.cfg.Season, "sources", len(o.sources), "sequential", o.cfg.Sequential)

	pipelines := make([]*pipeline.Pipeline, len(o.sources))
	for i, spec := range o.sources {
		ex := extract.New(spec.Adapter, o.cfg.Retry, t, log)
		pipelines[i] = pipeline.New(spec.Pipeline, ex, o.validator, o.loader, t, log)
	}

	results := make([]domain.SourceRunResult, len(pipelines))
	if o.cfg.Sequential {
		for i, p := range pipelines {
			results[i] = p.Run(ctx)
		}
	} else {
		var g errgroup.Group
		for i, p := range pipelines {
			g.Go(func() error {
				results[i] = p.Run(ctx)
				return nil
			})
		}
		_ = g.Wait()
	}

	finished := time.Now().UTC()
	r := report.Build(runID, o.cfg.Season, started, finished, results, t.Summary())

	metrics.RunsTotal.WithLabelValues(string(r.Classification)).Inc()
	metrics.RunDuration.Observe(r.Duration().Seconds())
	metrics.LastRunTimestamp.Set(float64(finished.Unix()))

	log.Info("Run finished",
		"classification", r.Classification,
		"errors", r.TotalErrors(),
		"duration", r.Duration(),
	)

	// Post-run hooks must not be cut short by a cancelled run context.
	hookCtx := context.WithoutCancel(ctx)

	if o.notifier != nil {
		if err := o.notifier.Notify(hookCtx, r); err != nil {
			log.Error("Failed to deliver run report", "error", err)
		}
	}
	if o.history != nil {
		if err := o.history.SaveRun(hookCtx, r); err != nil {
			log.Error("Failed to save run history", "error", err)
		}
	}
	if o.archiver != nil && r.TotalErrors() > 0 {
		if err := o.archiver.Archive(hookCtx, runID, finished, t.Events()); err != nil {
			log.Error("Failed to archive error events", "error", err)
		}
	}
	if o.cfg.PushURL != "" {
		if err := metrics.Push(hookCtx, o.cfg.PushURL, o.cfg.PushJob); err != nil {
			log.Warn("Failed to push metrics", "error", err)
		}
	}
	if o.OnReport != nil {
		o.OnReport(r)
	}
	return r
}

// ExitCode maps a classification onto the process exit status of a run.
func ExitCode(c domain.Classification) int {
	if c == domain.ClassificationCriticalFailure {
		return 2
	}
	return 0
}

