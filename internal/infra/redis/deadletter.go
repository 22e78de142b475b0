package redis

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/standings/internal/core/domain"
)

// DefaultTTL is how long a run's dead letters are kept.
const DefaultTTL = 7 * 24 * time.Hour

const runsKey = "deadletter:runs"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func eventsKey(runID string) string {
	return fmt.Sprintf("deadletter:%s", runID)
}

// DeadLetter archives the error events of a run, including the raw record
// context, so rejected and skipped records can be inspected later.
type DeadLetter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDeadLetter creates a dead-letter store. A zero ttl uses DefaultTTL.
func NewDeadLetter(client *Client, ttl time.Duration) *DeadLetter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DeadLetter{rdb: client.rdb, ttl: ttl}
}

// Archive stores events under runID. Runs without events are skipped.
func (d *DeadLetter) Archive(ctx context.Context, runID string, at time.Time, events []domain.ErrorEvent) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]any, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", ev.ID, err)
		}
		values = append(values, data)
	}

	key := eventsKey(runID)
	_, err := d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, d.ttl)
		pipe.ZAdd(ctx, runsKey, redis.Z{Score: float64(at.Unix()), Member: runID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to archive run %s: %w", runID, err)
	}
	return nil
}

// List returns the archived events of runID in record order.
func (d *DeadLetter) List(ctx context.Context, runID string) ([]domain.ErrorEvent, error) {
	items, err := d.rdb.LRange(ctx, eventsKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	events := make([]domain.ErrorEvent, 0, len(items))
	for _, item := range items {
		var ev domain.ErrorEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Runs returns up to limit run ids with archived events, newest first.
// Ids whose events have expired are dropped from the index.
func (d *DeadLetter) Runs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	ids, err := d.rdb.ZRevRange(ctx, runsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	out := make([]string, 0, limit)
	for _, id := range ids {
		n, err := d.rdb.Exists(ctx, eventsKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("exists failed: %w", err)
		}
		if n == 0 {
			d.rdb.ZRem(ctx, runsKey, id)
			continue
		}
		if len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

// Count returns the number of archived events of runID.
func (d *DeadLetter) Count(ctx context.Context, runID string) (int, error) {
	n, err := d.rdb.LLen(ctx, eventsKey(runID)).Result()
	if err != nil {
		return 0, fmt.Errorf("llen failed: %w", err)
	}
	return int(n), nil
}
