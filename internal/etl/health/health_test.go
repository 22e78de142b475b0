package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

func runReport(c domain.Classification, sources ...domain.SourceRunResult) domain.RunReport {
	now := time.Now()
	return domain.RunReport{
		RunID:          "run-1",
		StartedAt:      now.Add(-time.Second),
		FinishedAt:     now,
		Classification: c,
		Sources:        sources,
	}
}

func TestMonitor_NoRunYet(t *testing.T) {
	m := NewMonitor(nil)
	report := m.CheckHealth()
	if report.SystemStatus != StatusUnknown {
		t.Errorf("expected unknown, got %s", report.SystemStatus)
	}
	if report.LastRun != nil {
		t.Error("expected no last run")
	}
}

func TestMonitor_StatusPerClassification(t *testing.T) {
	tests := []struct {
		c    domain.Classification
		want SystemStatus
	}{
		{domain.ClassificationSuccess, StatusHealthy},
		{domain.ClassificationPartialFailure, StatusDegraded},
		{domain.ClassificationCriticalFailure, StatusCritical},
	}
	for _, tt := range tests {
		m := NewMonitor(nil)
		m.Observe(runReport(tt.c))
		if got := m.CheckHealth().SystemStatus; got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.c, tt.want, got)
		}
	}
}

func TestMonitor_SourceDetails(t *testing.T) {
	next := time.Now().Add(time.Hour)
	m := NewMonitor(func() time.Time { return next })
	m.Observe(runReport(domain.ClassificationPartialFailure,
		domain.SourceRunResult{
			Source:   domain.SourceAPISports,
			State:    domain.StateFailed,
			FailedAt: domain.StateExtracting,
			Reason:   "retries exhausted",
		},
		domain.SourceRunResult{
			Source: domain.SourceAPIFootball,
			State:  domain.StateCompleted,
			Counts: domain.SourceCounts{Loaded: 20},
		},
	))

	report := m.CheckHealth()
	if len(report.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(report.Sources))
	}
	if report.Sources[0].Status != StatusCritical || report.Sources[0].FailedAt != domain.StateExtracting {
		t.Errorf("unexpected failed source health: %+v", report.Sources[0])
	}
	if report.Sources[1].Status != StatusHealthy || report.Sources[1].Loaded != 20 {
		t.Errorf("unexpected completed source health: %+v", report.Sources[1])
	}
	if report.NextRun == nil || !report.NextRun.Equal(next) {
		t.Errorf("expected next run %v, got %v", next, report.NextRun)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	m := NewMonitor(nil)
	srv := NewServer(m, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 before any run, got %d", rec.Code)
	}

	m.Observe(runReport(domain.ClassificationCriticalFailure))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after critical run, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != string(StatusCritical) {
		t.Errorf("expected critical status, got %q", body["status"])
	}
}

func TestServer_DetailedEndpoint(t *testing.T) {
	m := NewMonitor(nil)
	m.Observe(runReport(domain.ClassificationSuccess, domain.SourceRunResult{
		Source: domain.SourceAPIFootball,
		State:  domain.StateCompleted,
	}))
	srv := NewServer(m, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.SystemStatus != StatusHealthy || report.RunID != "run-1" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestServer_DetailedReportsSink(t *testing.T) {
	tests := []struct {
		name       string
		check      func(ctx context.Context) error
		wantSink   SystemStatus
		wantSystem SystemStatus
	}{
		{"reachable", func(ctx context.Context) error { return nil }, StatusHealthy, StatusHealthy},
		{"unreachable", func(ctx context.Context) error { return errors.New("connection refused") }, StatusCritical, StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(nil)
			m.SetSinkCheck(tt.check)
			m.Observe(runReport(domain.ClassificationSuccess, domain.SourceRunResult{
				Source: domain.SourceAPISports,
				State:  domain.StateCompleted,
			}))

			rec := httptest.NewRecorder()
			NewServer(m, 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

			var report HealthReport
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if report.Sink == nil || report.Sink.Status != tt.wantSink {
				t.Fatalf("expected sink %s, got %+v", tt.wantSink, report.Sink)
			}
			if report.SystemStatus != tt.wantSystem {
				t.Errorf("expected system %s, got %s", tt.wantSystem, report.SystemStatus)
			}
		})
	}
}

func TestMonitor_NoSinkCheck(t *testing.T) {
	if got := NewMonitor(nil).CheckSink(context.Background()); got != nil {
		t.Errorf("expected nil sink health, got %+v", got)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := NewServer(NewMonitor(nil), 0)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
