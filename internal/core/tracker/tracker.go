// Package tracker accumulates categorized error events for a single run.
package tracker

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/vietddude/standings/internal/core/domain"
)

// Tracker is a run-scoped, concurrency-safe error accumulator.
// Events are kept in record order, which preserves per-source order.
type Tracker struct {
	mu     sync.RWMutex
	events []domain.ErrorEvent

	// OnRecord, when set, is called for every recorded event outside the lock.
	OnRecord func(domain.ErrorEvent)

	now func() time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{now: time.Now}
}

// Record appends an event and returns it. context is serialized to JSON;
// a value that cannot be serialized is stored as its fmt representation.
func (t *Tracker) Record(category domain.ErrorCategory, source domain.SourceID, message string, context any) domain.ErrorEvent {
	ev := domain.ErrorEvent{
		ID:        uuid.NewString(),
		Category:  category,
		Source:    source,
		Timestamp: t.now().UTC(),
		Message:   message,
		Context:   encodeContext(context),
	}

	t.mu.Lock()
	t.events = append(t.events, ev)
	hook := t.OnRecord
	t.mu.Unlock()

	if hook != nil {
		hook(ev)
	}
	return ev
}

func encodeContext(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := jsoniter.Marshal(v)
	if err != nil {
		b, _ = jsoniter.Marshal(fmt.Sprintf("%v", v))
	}
	return b
}

// Events returns a copy of every event in record order.
func (t *Tracker) Events() []domain.ErrorEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.ErrorEvent, len(t.events))
	copy(out, t.events)
	return out
}

// BySource returns the events of one source in record order.
func (t *Tracker) BySource(source domain.SourceID) []domain.ErrorEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []domain.ErrorEvent
	for _, ev := range t.events {
		if ev.Source == source {
			out = append(out, ev)
		}
	}
	return out
}

// ByCategory returns the events of one category in record order.
func (t *Tracker) ByCategory(category domain.ErrorCategory) []domain.ErrorEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []domain.ErrorEvent
	for _, ev := range t.events {
		if ev.Category == category {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns the number of events of one category.
func (t *Tracker) Count(category domain.ErrorCategory) int {
	return len(t.ByCategory(category))
}

// Total returns the number of recorded events.
func (t *Tracker) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.events)
}

// Summary returns one entry per category, in domain.Categories order,
// including categories with zero events.
func (t *Tracker) Summary() []domain.CategorySummary {
	out := make([]domain.CategorySummary, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		events := t.ByCategory(c)
		out = append(out, domain.CategorySummary{
			Category: c,
			Count:    len(events),
			Events:   events,
		})
	}
	return out
}
