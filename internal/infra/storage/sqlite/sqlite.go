// Package sqlite stores canonical records and run history in a local
// SQLite file.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const insertChunk = 50

// DB wraps the SQLite connection.
type DB struct {
	*sqlx.DB
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate applies the embedded migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return nil
}

// Health checks if the database file is reachable.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS %q (
	team_id       INTEGER NOT NULL,
	name          TEXT NOT NULL,
	country       TEXT,
	founded       INTEGER,
	stadium       TEXT,
	city          TEXT,
	capacity      INTEGER,
	rank          INTEGER NOT NULL,
	points        INTEGER NOT NULL,
	goal_diff     INTEGER,
	goals_for     INTEGER,
	goals_against INTEGER,
	win           INTEGER,
	draw          INTEGER,
	lose          INTEGER
)`

const insertTeamSQL = `INSERT INTO %q (
	team_id, name, country, founded, stadium, city, capacity,
	rank, points, goal_diff, goals_for, goals_against, win, draw, lose
) VALUES (
	:team_id, :name, :country, :founded, :stadium, :city, :capacity,
	:rank, :points, :goal_diff, :goals_for, :goals_against, :win, :draw, :lose
)`

// Load writes records into the flattened target table (schema_table).
func (db *DB) Load(ctx context.Context, records []domain.TeamRecord, target string, mode storage.WriteMode) (int, error) {
	t, err := storage.ParseTarget(target)
	if err != nil {
		return 0, err
	}
	if _, err := storage.ParseWriteMode(string(mode)); err != nil {
		return 0, err
	}
	table := t.Flat()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createTableSQL, table)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", table, err)
	}
	if mode != storage.WriteAppend {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, table)); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", table, err)
		}
	}

	query := fmt.Sprintf(insertTeamSQL, table)
	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		if _, err := tx.NamedExecContext(ctx, query, records[start:end]); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return len(records), nil
}

// Rows returns every record stored in target.
func (db *DB) Rows(ctx context.Context, target string) ([]domain.TeamRecord, error) {
	t, err := storage.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	var out []domain.TeamRecord
	if err := db.SelectContext(ctx, &out, fmt.Sprintf(`SELECT * FROM %q ORDER BY rank`, t.Flat())); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.Flat(), err)
	}
	return out, nil
}

const insertMetricsSQL = `INSERT INTO execution_metrics (
	run_id, season, classification, source, state,
	api_calls, api_errors, avg_latency_seconds,
	fetched, validated, rejected, transformed, skipped, loaded,
	error_count, duration_seconds, started_at, finished_at
) VALUES (
	:run_id, :season, :classification, :source, :state,
	:api_calls, :api_errors, :avg_latency_seconds,
	:fetched, :validated, :rejected, :transformed, :skipped, :loaded,
	:error_count, :duration_seconds, :started_at, :finished_at
)`

// SaveRun appends the report's execution metrics.
func (db *DB) SaveRun(ctx context.Context, report domain.RunReport) error {
	rows := storage.MetricsRows(report)
	if len(rows) == 0 {
		return nil
	}
	if _, err := db.NamedExecContext(ctx, insertMetricsSQL, rows); err != nil {
		return fmt.Errorf("insert execution metrics: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []storage.SourceMetrics
	err := db.SelectContext(ctx, &rows, `
		SELECT run_id, season, classification, source, state,
			api_calls, api_errors, avg_latency_seconds,
			fetched, validated, rejected, transformed, skipped, loaded,
			error_count, duration_seconds, started_at, finished_at
		FROM execution_metrics
		WHERE run_id IN (
			SELECT run_id FROM execution_metrics
			GROUP BY run_id
			ORDER BY MAX(started_at) DESC
			LIMIT ?
		)
		ORDER BY started_at DESC, source`, limit)
	if err != nil {
		return nil, fmt.Errorf("query execution metrics: %w", err)
	}
	return storage.GroupRuns(rows), nil
}
