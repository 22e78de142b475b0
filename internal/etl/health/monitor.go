package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

// Monitor keeps the report of the most recent run.
type Monitor struct {
	mu      sync.RWMutex
	last    *domain.RunReport
	nextRun func() time.Time
	sink    func(ctx context.Context) error
}

// NewMonitor creates a new health monitor. nextRun may be nil.
func NewMonitor(nextRun func() time.Time) *Monitor {
	return &Monitor{nextRun: nextRun}
}

// SetSinkCheck registers the ping used by CheckSink.
func (m *Monitor) SetSinkCheck(check func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = check
}

// CheckSink pings the sink. It returns nil when no check is registered.
func (m *Monitor) CheckSink(ctx context.Context) *SinkHealth {
	m.mu.RLock()
	check := m.sink
	m.mu.RUnlock()
	if check == nil {
		return nil
	}
	if err := check(ctx); err != nil {
		return &SinkHealth{Status: StatusCritical, Error: err.Error()}
	}
	return &SinkHealth{Status: StatusHealthy}
}

// Observe stores a finished run report.
func (m *Monitor) Observe(r domain.RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &r
}

// CheckHealth builds a health report from the last observed run.
func (m *Monitor) CheckHealth() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{SystemStatus: StatusUnknown, Sources: []SourceHealth{}}
	if m.nextRun != nil {
		if next := m.nextRun(); !next.IsZero() {
			report.NextRun = &next
		}
	}
	if m.last == nil {
		return report
	}

	last := m.last
	finished := last.FinishedAt
	report.SystemStatus = StatusFor(last.Classification)
	report.RunID = last.RunID
	report.Classification = last.Classification
	report.LastRun = &finished

	for _, src := range last.Sources {
		status := StatusHealthy
		if !src.Succeeded() {
			status = StatusCritical
		} else if len(src.Events) > 0 {
			status = StatusDegraded
		}
		report.Sources = append(report.Sources, SourceHealth{
			Source:   src.Source,
			Status:   status,
			State:    src.State,
			FailedAt: src.FailedAt,
			Reason:   src.Reason,
			Loaded:   src.Counts.Loaded,
			Errors:   len(src.Events),
		})
	}
	return report
}
