package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/storage"
)

// Storage keeps loaded tables and run history in process memory. It backs
// dry runs and tests.
type Storage struct {
	mu      sync.RWMutex
	tables  map[string][]domain.TeamRecord
	history []storage.SourceMetrics

	// FailLoad, when set, is returned by Load without touching the table.
	FailLoad error
}

func NewStorage() *Storage {
	return &Storage{tables: make(map[string][]domain.TeamRecord)}
}

// -----------------------------------------------------------------------------
// Loader
// -----------------------------------------------------------------------------

func (s *Storage) Load(ctx context.Context, records []domain.TeamRecord, target string, mode storage.WriteMode) (int, error) {
	t, err := storage.ParseTarget(target)
	if err != nil {
		return 0, err
	}
	if _, err := storage.ParseWriteMode(string(mode)); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad != nil {
		return 0, s.FailLoad
	}

	key := t.String()
	rows := make([]domain.TeamRecord, len(records))
	copy(rows, records)
	if mode == storage.WriteAppend {
		s.tables[key] = append(s.tables[key], rows...)
	} else {
		s.tables[key] = rows
	}
	return len(records), nil
}

// Table returns a copy of the rows stored under target.
func (s *Storage) Table(target string) []domain.TeamRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.tables[target]
	out := make([]domain.TeamRecord, len(rows))
	copy(out, rows)
	return out
}

// -----------------------------------------------------------------------------
// History
// -----------------------------------------------------------------------------

func (s *Storage) SaveRun(ctx context.Context, report domain.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, storage.MetricsRows(report)...)
	return nil
}

func (s *Storage) RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	s.mu.RLock()
	rows := make([]storage.SourceMetrics, len(s.history))
	copy(rows, s.history)
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StartedAt.After(rows[j].StartedAt)
	})
	runs := storage.GroupRuns(rows)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Storage) Close() error { return nil }
