package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/storage"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
	team_id       BIGINT NOT NULL,
	name          TEXT NOT NULL,
	country       TEXT,
	founded       BIGINT,
	stadium       TEXT,
	city          TEXT,
	capacity      BIGINT,
	rank          BIGINT NOT NULL,
	points        BIGINT NOT NULL,
	goal_diff     BIGINT,
	goals_for     BIGINT,
	goals_against BIGINT,
	win           BIGINT,
	draw          BIGINT,
	lose          BIGINT
)`

// Loader bulk-loads canonical records with COPY inside one transaction.
type Loader struct {
	db *DB
}

// NewLoader creates a PostgreSQL loader.
func NewLoader(db *DB) *Loader {
	return &Loader{db: db}
}

func qualified(t storage.Target) string {
	if t.Schema == "" {
		return pq.QuoteIdentifier(t.Table)
	}
	return pq.QuoteIdentifier(t.Schema) + "." + pq.QuoteIdentifier(t.Table)
}

// Load creates the target if needed, truncates it in TRUNCATE mode and
// copies records in. Any failure rolls the whole load back.
func (l *Loader) Load(ctx context.Context, records []domain.TeamRecord, target string, mode storage.WriteMode) (int, error) {
	t, err := storage.ParseTarget(target)
	if err != nil {
		return 0, err
	}
	if _, err := storage.ParseWriteMode(string(mode)); err != nil {
		return 0, err
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if t.Schema != "" {
		if _, err := tx.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(t.Schema)); err != nil {
			return 0, fmt.Errorf("failed to create schema %s: %w", t.Schema, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createTableSQL, qualified(t))); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", t, err)
	}
	if mode != storage.WriteAppend {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+qualified(t)); err != nil {
			return 0, fmt.Errorf("failed to truncate %s: %w", t, err)
		}
	}

	var copySQL string
	if t.Schema == "" {
		copySQL = pq.CopyIn(t.Table, domain.TeamColumns...)
	} else {
		copySQL = pq.CopyInSchema(t.Schema, t.Table, domain.TeamColumns...)
	}
	stmt, err := tx.PrepareContext(ctx, copySQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}
	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.Values()...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("failed to copy team %d: %w", rec.TeamID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit load: %w", err)
	}
	committed = true
	return len(records), nil
}

func (l *Loader) Close() error {
	return l.db.Close()
}
