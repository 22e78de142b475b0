// Package pipeline runs extract, validate, transform and load for one source.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/tracker"
	"github.com/vietddude/standings/internal/etl/metrics"
	"github.com/vietddude/standings/internal/etl/normalize"
	"github.com/vietddude/standings/internal/etl/validate"
	"github.com/vietddude/standings/internal/infra/storage"
)

// Fetcher is the extraction side of a pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint domain.EndpointKind) (any, error)
	Stats() domain.APIStats
}

// Config holds the per-source settings of a pipeline.
type Config struct {
	Source    domain.SourceID
	Target    string
	WriteMode storage.WriteMode
	Mapping   normalize.Mapping
	// OutputDir, when set, receives raw and transformed JSON snapshots.
	OutputDir string
}

// Pipeline owns one source's state machine, counts and partial results.
type Pipeline struct {
	cfg       Config
	fetcher   Fetcher
	validator *validate.Validator
	loader    storage.Loader
	tracker   *tracker.Tracker
	log       *slog.Logger

	state       State
	transitions []Transition
}

// New creates a pipeline in PENDING state.
func New(cfg Config, f Fetcher, v *validate.Validator, l storage.Loader, t *tracker.Tracker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Target == "" {
		cfg.Target = storage.DefaultTarget(cfg.Source)
	}
	if cfg.WriteMode == "" {
		cfg.WriteMode = storage.WriteTruncate
	}
	return &Pipeline{
		cfg:       cfg,
		fetcher:   f,
		validator: v,
		loader:    l,
		tracker:   t,
		log:       logger.With("source", cfg.Source),
		state:     domain.StatePending,
	}
}

// State returns the current state.
func (p *Pipeline) State() State { return p.state }

// Transitions returns the state history.
func (p *Pipeline) Transitions() []Transition {
	out := make([]Transition, len(p.transitions))
	copy(out, p.transitions)
	return out
}

func (p *Pipeline) advance(to State, reason string) error {
	t := NewTransition(p.state, to, reason)
	if !t.IsValid() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
	}
	p.transitions = append(p.transitions, t)
	p.state = to
	p.log.Debug("State changed", "from", t.From, "to", t.To, "state", StateDescription(to))
	return nil
}

// Run drives the pipeline to a terminal state. It never returns an error;
// stage failures are reflected in the result.
func (p *Pipeline) Run(ctx context.Context) domain.SourceRunResult {
	src := p.cfg.Source
	res := domain.SourceRunResult{
		Source:    src,
		State:     p.state,
		Target:    p.cfg.Target,
		StartedAt: time.Now().UTC(),
	}

	p.execute(ctx, &res)

	res.State = p.state
	res.Events = p.tracker.BySource(src)
	res.API = p.fetcher.Stats()
	res.FinishedAt = time.Now().UTC()

	succeeded := 0.0
	if res.Succeeded() {
		succeeded = 1
	}
	metrics.PipelineSucceeded.WithLabelValues(string(src)).Set(succeeded)
	for stage, n := range map[string]int{
		"fetched":     res.Counts.Fetched,
		"rejected":    res.Counts.Rejected,
		"transformed": res.Counts.Transformed,
		"skipped":     res.Counts.Skipped,
		"loaded":      res.Counts.Loaded,
	} {
		metrics.RecordsTotal.WithLabelValues(string(src), stage).Add(float64(n))
	}

	if res.Succeeded() {
		p.log.Info("Pipeline completed", "loaded", res.Counts.Loaded, "target", res.Target)
	} else {
		p.log.Error("Pipeline failed", "failed_at", res.FailedAt, "reason", res.Reason)
	}
	return res
}

func (p *Pipeline) fail(res *domain.SourceRunResult, err error) {
	res.FailedAt = p.state
	res.Reason = err.Error()
	if terr := p.advance(domain.StateFailed, res.Reason); terr != nil {
		p.log.Error("Cannot mark pipeline failed", "error", terr)
	}
}

func (p *Pipeline) execute(ctx context.Context, res *domain.SourceRunResult) {
	src := p.cfg.Source

	// Extract
	if err := p.advance(domain.StateExtracting, ""); err != nil {
		p.fail(res, err)
		return
	}
	raw := make(map[domain.EndpointKind]any, len(domain.Endpoints))
	for _, endpoint := range domain.Endpoints {
		payload, err := p.fetcher.Fetch(ctx, endpoint)
		if err != nil {
			p.fail(res, err)
			return
		}
		raw[endpoint] = payload
		p.snapshot(fmt.Sprintf("%s_%s.json", src, endpoint), payload)
	}

	// Validate
	if err := p.advance(domain.StateValidating, ""); err != nil {
		p.fail(res, err)
		return
	}
	teams := p.validator.Envelope(src, domain.EndpointTeams, raw[domain.EndpointTeams])
	standings := p.validator.Envelope(src, domain.EndpointStandings, raw[domain.EndpointStandings])
	res.Counts.Fetched = teams.Total
	p.recordIssues(teams, standings)
	if err := firstFatal(teams, standings); err != nil {
		p.fail(res, err)
		return
	}

	joined := p.validator.Join(src, teams.Records, standings.Records)
	required := p.validator.Required(joined.Records, p.cfg.Mapping.Required(), normalize.RequiredFields)
	p.recordIssues(joined, required)
	res.Counts.Validated = len(required.Records)
	res.Counts.Rejected = res.Counts.Fetched - res.Counts.Validated
	if err := firstFatal(joined, required); err != nil {
		p.fail(res, err)
		return
	}

	// Transform
	if err := p.advance(domain.StateTransforming, ""); err != nil {
		p.fail(res, err)
		return
	}
	records := make([]domain.TeamRecord, 0, len(required.Records))
	for _, rec := range required.Records {
		team, err := normalize.Normalize(rec, p.cfg.Mapping)
		if err != nil {
			res.Counts.Skipped++
			p.tracker.Record(domain.CategoryTransformation, src, err.Error(), rec)
			continue
		}
		records = append(records, team)
	}
	res.Counts.Transformed = len(records)
	p.snapshot(fmt.Sprintf("%s_transformed.json", src), records)
	if res.Counts.Validated > 0 && res.Counts.Transformed == 0 {
		p.fail(res, fmt.Errorf("all %d validated records failed transformation", res.Counts.Validated))
		return
	}

	// Load
	if err := p.advance(domain.StateLoading, ""); err != nil {
		p.fail(res, err)
		return
	}
	if len(records) == 0 {
		p.log.Warn("No records to load, target left unchanged", "target", p.cfg.Target)
	} else {
		n, err := p.loader.Load(ctx, records, p.cfg.Target, p.cfg.WriteMode)
		if err != nil {
			err = fmt.Errorf("load %s: %w", p.cfg.Target, err)
			p.tracker.Record(domain.CategoryLoad, src, err.Error(), map[string]any{
				"target":  p.cfg.Target,
				"records": len(records),
			})
			p.fail(res, err)
			return
		}
		res.Counts.Loaded = n
	}

	if err := p.advance(domain.StateCompleted, ""); err != nil {
		p.fail(res, err)
	}
}

func (p *Pipeline) recordIssues(results ...validate.Result) {
	for _, r := range results {
		for _, is := range r.Issues {
			msg := fmt.Sprintf("%s: %s", is.Kind, is.Message)
			p.tracker.Record(domain.CategoryValidation, p.cfg.Source, msg, is.Record)
			p.log.Warn("Validation issue", "kind", is.Kind, "severity", is.Severity, "field", is.Field, "message", is.Message)
		}
	}
}

func firstFatal(results ...validate.Result) error {
	for _, r := range results {
		if err := r.Err(); err != nil {
			return err
		}
	}
	return nil
}

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func (p *Pipeline) snapshot(name string, v any) {
	if p.cfg.OutputDir == "" {
		return
	}
	data, err := snapshotJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		p.log.Warn("Failed to encode snapshot", "file", name, "error", err)
		return
	}
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		p.log.Warn("Failed to create output dir", "dir", p.cfg.OutputDir, "error", err)
		return
	}
	path := filepath.Join(p.cfg.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.log.Warn("Failed to write snapshot", "file", path, "error", err)
	}
}
