package domain

import "time"

// PipelineState is the lifecycle state of one source pipeline.
type PipelineState string

const (
	StatePending      PipelineState = "PENDING"
	StateExtracting   PipelineState = "EXTRACTING"
	StateValidating   PipelineState = "VALIDATING"
	StateTransforming PipelineState = "TRANSFORMING"
	StateLoading      PipelineState = "LOADING"
	StateCompleted    PipelineState = "COMPLETED"
	StateFailed       PipelineState = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s PipelineState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// SourceCounts tracks record flow through one pipeline.
// Validated+Rejected == Fetched and Transformed+Skipped == Validated.
type SourceCounts struct {
	Fetched     int `json:"fetched"`
	Validated   int `json:"validated"`
	Rejected    int `json:"rejected"`
	Transformed int `json:"transformed"`
	Skipped     int `json:"skipped"`
	Loaded      int `json:"loaded"`
}

// APIStats summarizes the API calls a pipeline made.
type APIStats struct {
	Calls        int           `json:"calls"`
	Errors       int           `json:"errors"`
	TotalLatency time.Duration `json:"total_latency"`
}

// AvgLatency returns the mean latency per call.
func (s APIStats) AvgLatency() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.Calls)
}

// SourceRunResult is the outcome of one source pipeline.
type SourceRunResult struct {
	Source     SourceID      `json:"source"`
	State      PipelineState `json:"state"`
	FailedAt   PipelineState `json:"failed_at,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Target     string        `json:"target"`
	Counts     SourceCounts  `json:"counts"`
	API        APIStats      `json:"api"`
	Events     []ErrorEvent  `json:"events"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Succeeded reports whether the pipeline reached COMPLETED.
func (r SourceRunResult) Succeeded() bool {
	return r.State == StateCompleted
}

// Classification is the overall outcome of a run.
type Classification string

const (
	ClassificationSuccess         Classification = "SUCCESS"
	ClassificationPartialFailure  Classification = "PARTIAL_FAILURE"
	ClassificationCriticalFailure Classification = "CRITICAL_FAILURE"
)

// RunReport aggregates every source result of one run.
type RunReport struct {
	RunID          string            `json:"run_id"`
	Season         string            `json:"season"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Classification Classification    `json:"classification"`
	Sources        []SourceRunResult `json:"sources"`
	Errors         []CategorySummary `json:"errors"`
}

// TotalErrors returns the number of events across all categories.
func (r RunReport) TotalErrors() int {
	total := 0
	for _, s := range r.Errors {
		total += s.Count
	}
	return total
}

// Source returns the result for the given source.
func (r RunReport) Source(id SourceID) (SourceRunResult, bool) {
	for _, s := range r.Sources {
		if s.Source == id {
			return s, true
		}
	}
	return SourceRunResult{}, false
}

// Duration returns the wall-clock length of the run.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
