// Package notify delivers run reports to operators.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/etl/report"
)

// Notifier consumes a finished run report.
type Notifier interface {
	Notify(ctx context.Context, r domain.RunReport) error
}

// Log writes the report to the structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log-only notifier. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, r domain.RunReport) error {
	level := slog.LevelInfo
	switch r.Classification {
	case domain.ClassificationPartialFailure:
		level = slog.LevelWarn
	case domain.ClassificationCriticalFailure:
		level = slog.LevelError
	}
	l.logger.Log(ctx, level, report.Subject(r),
		"run_id", r.RunID,
		"classification", r.Classification,
		"total_errors", r.TotalErrors(),
		"duration", r.Duration(),
	)
	return nil
}

// Multi fans a report out to several notifiers. Every notifier is tried;
// the errors are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r domain.RunReport) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
