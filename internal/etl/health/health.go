// Package health exposes the outcome of the most recent run over HTTP.
package health

import (
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

// SystemStatus represents the overall health state of the service or a source.
type SystemStatus string

const (
	StatusUnknown  SystemStatus = "unknown"
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// SourceHealth contains the last known outcome for one source.
type SourceHealth struct {
	Source   domain.SourceID      `json:"source"`
	Status   SystemStatus         `json:"status"`
	State    domain.PipelineState `json:"state"`
	FailedAt domain.PipelineState `json:"failed_at,omitempty"`
	Reason   string               `json:"reason,omitempty"`
	Loaded   int                  `json:"loaded"`
	Errors   int                  `json:"errors"`
}

// HealthReport contains the full service health report.
type HealthReport struct {
	SystemStatus   SystemStatus          `json:"system_status"`
	RunID          string                `json:"run_id,omitempty"`
	Classification domain.Classification `json:"classification,omitempty"`
	LastRun        *time.Time            `json:"last_run,omitempty"`
	NextRun        *time.Time            `json:"next_run,omitempty"`
	Sources        []SourceHealth        `json:"sources"`
	Sink           *SinkHealth           `json:"sink,omitempty"`
}

// SinkHealth is the result of pinging the analytical sink.
type SinkHealth struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// StatusFor maps a run classification onto a service status.
func StatusFor(c domain.Classification) SystemStatus {
	switch c {
	case domain.ClassificationSuccess:
		return StatusHealthy
	case domain.ClassificationPartialFailure:
		return StatusDegraded
	case domain.ClassificationCriticalFailure:
		return StatusCritical
	default:
		return StatusUnknown
	}
}
