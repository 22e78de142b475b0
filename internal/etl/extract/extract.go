// Package extract wraps a source adapter with the retry policy and turns
// terminal failures into extraction events.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/tracker"
	"github.com/vietddude/standings/internal/etl/metrics"
	"github.com/vietddude/standings/internal/infra/retry"
	"github.com/vietddude/standings/internal/infra/source"
)

// ExtractionFailure is returned once every attempt for an endpoint failed.
type ExtractionFailure struct {
	Source   domain.SourceID
	Endpoint domain.EndpointKind
	Attempts int
	Err      error
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extract %s/%s failed after %d attempts: %v", e.Source, e.Endpoint, e.Attempts, e.Err)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Extractor fetches raw payloads for one source.
type Extractor struct {
	adapter source.Adapter
	retry   retry.Config
	tracker *tracker.Tracker
	logger  *slog.Logger

	mu    sync.Mutex
	stats domain.APIStats
}

// New creates an extractor. A nil logger uses slog.Default().
func New(adapter source.Adapter, cfg retry.Config, t *tracker.Tracker, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		adapter: adapter,
		retry:   cfg,
		tracker: t,
		logger:  logger.With("source", adapter.Source()),
	}
}

// Source returns the source this extractor reads from.
func (e *Extractor) Source() domain.SourceID { return e.adapter.Source() }

// Fetch returns the raw payload of endpoint. Each call is an independent
// fetch. On terminal failure exactly one extraction event is recorded.
func (e *Extractor) Fetch(ctx context.Context, endpoint domain.EndpointKind) (any, error) {
	src := e.adapter.Source()
	attempt := 0

	raw, err := retry.Do(ctx, e.retry, func(ctx context.Context) (any, error) {
		attempt++
		start := time.Now()
		metrics.APICallsTotal.WithLabelValues(string(src), string(endpoint)).Inc()

		raw, err := e.adapter.Fetch(ctx, endpoint)
		elapsed := time.Since(start)
		metrics.APILatency.WithLabelValues(string(src), string(endpoint)).Observe(elapsed.Seconds())
		e.observe(elapsed, err)
		if err != nil {
			metrics.APIErrorsTotal.WithLabelValues(string(src), string(endpoint)).Inc()
			e.logger.Warn("Fetch attempt failed",
				"endpoint", endpoint,
				"attempt", attempt,
				"max_attempts", e.retry.MaxAttempts,
				"error", err,
			)
			return nil, err
		}
		return raw, nil
	})
	if err == nil {
		e.logger.Debug("Fetched payload", "endpoint", endpoint, "attempts", attempt)
		return raw, nil
	}

	failure := &ExtractionFailure{Source: src, Endpoint: endpoint, Attempts: attempt, Err: err}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		failure.Attempts = exhausted.Attempts
		failure.Err = exhausted.Err
	}

	e.tracker.Record(domain.CategoryExtraction, src, failure.Error(), map[string]any{
		"endpoint": endpoint,
		"attempts": failure.Attempts,
	})
	e.logger.Error("Extraction failed", "endpoint", endpoint, "attempts", failure.Attempts, "error", failure.Err)
	return nil, failure
}

func (e *Extractor) observe(latency time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.Calls++
	e.stats.TotalLatency += latency
	if err != nil {
		e.stats.Errors++
	}
}

// Stats returns the API call statistics accumulated so far.
func (e *Extractor) Stats() domain.APIStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
