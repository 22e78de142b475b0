package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/tracker"
	"github.com/vietddude/standings/internal/infra/retry"
)

type mockAdapter struct {
	source  domain.SourceID
	calls   int
	failFor int
	err     error
	payload any
}

func (m *mockAdapter) Source() domain.SourceID { return m.source }

func (m *mockAdapter) Fetch(ctx context.Context, kind domain.EndpointKind) (any, error) {
	m.calls++
	if m.calls <= m.failFor {
		return nil, m.err
	}
	return m.payload, nil
}

func TestExtractor_RetriesThenSucceeds(t *testing.T) {
	m := &mockAdapter{
		source:  domain.SourceAPISports,
		failFor: 2,
		err:     errors.New("timeout"),
		payload: map[string]any{"response": []any{}},
	}
	tr := tracker.New()
	e := New(m, retry.Immediate(3), tr, nil)

	raw, err := e.Fetch(context.Background(), domain.EndpointTeams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == nil {
		t.Fatal("expected payload")
	}
	if m.calls != 3 {
		t.Errorf("expected 3 calls, got %d", m.calls)
	}
	if tr.Total() != 0 {
		t.Errorf("expected no events on success, got %d", tr.Total())
	}
	if stats := e.Stats(); stats.Calls != 3 || stats.Errors != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestExtractor_ExhaustionRecordsOneEvent(t *testing.T) {
	m := &mockAdapter{source: domain.SourceAPIFootball, failFor: 10, err: errors.New("503 Service Unavailable")}
	tr := tracker.New()
	e := New(m, retry.Immediate(3), tr, nil)

	_, err := e.Fetch(context.Background(), domain.EndpointStandings)

	var failure *ExtractionFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *ExtractionFailure, got %T", err)
	}
	if failure.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", failure.Attempts)
	}
	if !errors.Is(err, m.err) {
		t.Errorf("expected cause to be wrapped")
	}

	events := tr.ByCategory(domain.CategoryExtraction)
	if len(events) != 1 {
		t.Fatalf("expected 1 extraction event, got %d", len(events))
	}
	if events[0].Source != domain.SourceAPIFootball {
		t.Errorf("unexpected source: %s", events[0].Source)
	}
}

func TestExtractor_PermanentErrorStopsEarly(t *testing.T) {
	m := &mockAdapter{source: domain.SourceAPISports, failFor: 10, err: retry.Permanent(errors.New("http 401"))}
	tr := tracker.New()
	e := New(m, retry.Immediate(3), tr, nil)

	if _, err := e.Fetch(context.Background(), domain.EndpointTeams); err == nil {
		t.Fatal("expected error")
	}
	if m.calls != 1 {
		t.Errorf("expected 1 call, got %d", m.calls)
	}
	if tr.Total() != 1 {
		t.Errorf("expected 1 event, got %d", tr.Total())
	}
}
