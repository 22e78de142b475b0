package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

var (
	// ErrUnknownWriteMode is returned for write modes other than TRUNCATE/APPEND
	ErrUnknownWriteMode = errors.New("unknown write mode")
	// ErrInvalidTarget is returned when a target is not schema.table
	ErrInvalidTarget = errors.New("invalid load target")
)

// WriteMode controls whether a load replaces or extends the target.
type WriteMode string

const (
	WriteTruncate WriteMode = "TRUNCATE"
	WriteAppend   WriteMode = "APPEND"
)

// ParseWriteMode parses a case-insensitive write mode. Empty means TRUNCATE.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", WriteTruncate:
		return WriteTruncate, nil
	case WriteAppend:
		return WriteAppend, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWriteMode, s)
}

// DefaultTable is the table every source writes into, inside its own dataset.
const DefaultTable = "teams_standings"

// DefaultTarget returns "<source>.teams_standings".
func DefaultTarget(src domain.SourceID) string {
	return string(src) + "." + DefaultTable
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Target is a parsed "dataset.table" reference.
type Target struct {
	Schema string
	Table  string
}

// ParseTarget validates and splits target. A bare table name has no schema.
func ParseTarget(target string) (Target, error) {
	parts := strings.Split(target, ".")
	var t Target
	switch len(parts) {
	case 1:
		t.Table = parts[0]
	case 2:
		t.Schema, t.Table = parts[0], parts[1]
	default:
		return t, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if !identRe.MatchString(t.Table) || (t.Schema != "" && !identRe.MatchString(t.Schema)) {
		return t, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	return t, nil
}

// Flat joins schema and table with an underscore, for sinks without schemas.
func (t Target) Flat() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "_" + t.Table
}

func (t Target) String() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// Loader writes canonical records to an analytical sink.
type Loader interface {
	// Load writes records to target and returns the number of rows written.
	// A failed load leaves the target unchanged.
	Load(ctx context.Context, records []domain.TeamRecord, target string, mode WriteMode) (int, error)

	// Close releases the underlying connection.
	Close() error
}

// SourceMetrics is one execution_metrics row: the outcome of one source in
// one run.
type SourceMetrics struct {
	RunID          string    `db:"run_id"              json:"run_id"`
	Season         string    `db:"season"              json:"season"`
	Classification string    `db:"classification"      json:"classification"`
	Source         string    `db:"source"              json:"source"`
	State          string    `db:"state"               json:"state"`
	APICalls       int       `db:"api_calls"           json:"api_calls"`
	APIErrors      int       `db:"api_errors"          json:"api_errors"`
	AvgLatencySecs float64   `db:"avg_latency_seconds" json:"avg_latency_seconds"`
	Fetched        int       `db:"fetched"             json:"fetched"`
	Validated      int       `db:"validated"           json:"validated"`
	Rejected       int       `db:"rejected"            json:"rejected"`
	Transformed    int       `db:"transformed"         json:"transformed"`
	Skipped        int       `db:"skipped"             json:"skipped"`
	Loaded         int       `db:"loaded"              json:"loaded"`
	ErrorCount     int       `db:"error_count"         json:"error_count"`
	DurationSecs   float64   `db:"duration_seconds"    json:"duration_seconds"`
	StartedAt      time.Time `db:"started_at"          json:"started_at"`
	FinishedAt     time.Time `db:"finished_at"         json:"finished_at"`
}

// MetricsRows flattens a report into one row per source.
func MetricsRows(r domain.RunReport) []SourceMetrics {
	rows := make([]SourceMetrics, 0, len(r.Sources))
	for _, s := range r.Sources {
		rows = append(rows, SourceMetrics{
			RunID:          r.RunID,
			Season:         r.Season,
			Classification: string(r.Classification),
			Source:         string(s.Source),
			State:          string(s.State),
			APICalls:       s.API.Calls,
			APIErrors:      s.API.Errors,
			AvgLatencySecs: s.API.AvgLatency().Seconds(),
			Fetched:        s.Counts.Fetched,
			Validated:      s.Counts.Validated,
			Rejected:       s.Counts.Rejected,
			Transformed:    s.Counts.Transformed,
			Skipped:        s.Counts.Skipped,
			Loaded:         s.Counts.Loaded,
			ErrorCount:     len(s.Events),
			DurationSecs:   r.Duration().Seconds(),
			StartedAt:      r.StartedAt,
			FinishedAt:     r.FinishedAt,
		})
	}
	return rows
}

// RunSummary groups the metrics rows of one run.
type RunSummary struct {
	RunID          string          `json:"run_id"`
	Season         string          `json:"season"`
	Classification string          `json:"classification"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	Sources        []SourceMetrics `json:"sources"`
}

// GroupRuns folds rows ordered newest first into run summaries, keeping
// that order.
func GroupRuns(rows []SourceMetrics) []RunSummary {
	var out []RunSummary
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.RunID]
		if !ok {
			out = append(out, RunSummary{
				RunID:          row.RunID,
				Season:         row.Season,
				Classification: row.Classification,
				StartedAt:      row.StartedAt,
				FinishedAt:     row.FinishedAt,
			})
			i = len(out) - 1
			index[row.RunID] = i
		}
		out[i].Sources = append(out[i].Sources, row)
	}
	return out
}

// HistoryStore persists run execution metrics.
type HistoryStore interface {
	// SaveRun appends the report's metrics rows.
	SaveRun(ctx context.Context, report domain.RunReport) error

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// Close releases the underlying connection.
	Close() error
}
