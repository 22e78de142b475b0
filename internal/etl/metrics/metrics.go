package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// APICallsTotal tracks API call attempts per source and endpoint
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_api_calls_total",
			Help: "Total number of source API call attempts",
		},
		[]string{"source", "endpoint"},
	)

	// APIErrorsTotal tracks failed API call attempts
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_api_errors_total",
			Help: "Total number of failed source API call attempts",
		},
		[]string{"source", "endpoint"},
	)

	// APILatency tracks API call latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "standings_api_latency_seconds",
			Help:    "Source API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "endpoint"},
	)

	// ErrorEventsTotal tracks recorded error events by category
	ErrorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_error_events_total",
			Help: "Total number of recorded error events",
		},
		[]string{"source", "category"},
	)

	// RecordsTotal tracks record flow per pipeline stage
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_records_total",
			Help: "Records seen per source and stage",
		},
		[]string{"source", "stage"},
	)

	// PipelineSucceeded is 1 when the source's last pipeline completed
	PipelineSucceeded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "standings_pipeline_succeeded",
			Help: "Whether the last pipeline of a source completed",
		},
		[]string{"source"},
	)

	// RunDuration tracks run wall-clock time
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "standings_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	// RunsTotal tracks runs by classification
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "standings_runs_total",
			Help: "Total number of runs by classification",
		},
		[]string{"classification"},
	)

	// LastRunTimestamp is the unix time of the last finished run
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "standings_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)
)

// Push sends the default registry to a Prometheus Pushgateway.
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
