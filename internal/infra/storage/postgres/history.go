package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/storage"
)

const insertMetricsSQL = `
	INSERT INTO execution_metrics (
		run_id, season, classification, source, state,
		api_calls, api_errors, avg_latency_seconds,
		fetched, validated, rejected, transformed, skipped, loaded,
		error_count, duration_seconds, started_at, finished_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

const recentRunsSQL = `
	SELECT run_id, season, classification, source, state,
		api_calls, api_errors, avg_latency_seconds,
		fetched, validated, rejected, transformed, skipped, loaded,
		error_count, duration_seconds, started_at, finished_at
	FROM execution_metrics
	WHERE run_id IN (
		SELECT run_id FROM execution_metrics
		GROUP BY run_id
		ORDER BY MAX(started_at) DESC
		LIMIT $1
	)
	ORDER BY started_at DESC, source`

// History stores execution metrics through a pgx pool.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory connects to the run history database.
func NewHistory(ctx context.Context, cfg Config) (*History, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &History{pool: pool}, nil
}

// SaveRun inserts one row per source in a single batch.
func (h *History) SaveRun(ctx context.Context, report domain.RunReport) error {
	rows := storage.MetricsRows(report)
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertMetricsSQL,
			r.RunID, r.Season, r.Classification, r.Source, r.State,
			r.APICalls, r.APIErrors, r.AvgLatencySecs,
			r.Fetched, r.Validated, r.Rejected, r.Transformed, r.Skipped, r.Loaded,
			r.ErrorCount, r.DurationSecs, r.StartedAt, r.FinishedAt,
		)
	}

	br := h.pool.SendBatch(ctx, batch)
	for range rows {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert execution metrics: %w", err)
		}
	}
	return br.Close()
}

// RecentRuns returns up to limit runs, newest first.
func (h *History) RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := h.pool.Query(ctx, recentRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query execution metrics: %w", err)
	}
	metrics, err := pgx.CollectRows(rows, pgx.RowToStructByName[storage.SourceMetrics])
	if err != nil {
		return nil, fmt.Errorf("scan execution metrics: %w", err)
	}
	return storage.GroupRuns(metrics), nil
}

func (h *History) Close() error {
	h.pool.Close()
	return nil
}
