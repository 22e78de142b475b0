package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "standings.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestDB_LoadTruncateAndAppend(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	country := "England"
	gd := int64(20)
	records := []domain.TeamRecord{
		{TeamID: 141, Name: "Arsenal", Country: &country, Rank: 1, Points: 89, GoalDiff: &gd},
		{TeamID: 142, Name: "Chelsea", Rank: 2, Points: 80},
	}
	target := "api_football.teams_standings"

	if n, err := db.Load(ctx, records, target, storage.WriteTruncate); err != nil || n != 2 {
		t.Fatalf("Load = %d, %v", n, err)
	}
	if _, err := db.Load(ctx, records, target, storage.WriteTruncate); err != nil {
		t.Fatalf("second truncate load: %v", err)
	}

	rows, err := db.Rows(ctx, target)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after truncate, got %d", len(rows))
	}
	if rows[0].Country == nil || *rows[0].Country != "England" {
		t.Errorf("unexpected country: %v", rows[0].Country)
	}
	if rows[1].Country != nil || rows[1].GoalDiff != nil {
		t.Error("expected nulls to round-trip as nil")
	}

	if _, err := db.Load(ctx, records[:1], target, storage.WriteAppend); err != nil {
		t.Fatalf("append: %v", err)
	}
	rows, _ = db.Rows(ctx, target)
	if len(rows) != 3 {
		t.Errorf("expected 3 rows after append, got %d", len(rows))
	}
}

func TestDB_History(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	base := time.Date(2024, 5, 19, 16, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b"} {
		report := domain.RunReport{
			RunID:          id,
			Season:         "2023",
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			FinishedAt:     base.Add(time.Duration(i)*time.Hour + 10*time.Second),
			Classification: domain.ClassificationSuccess,
			Sources: []domain.SourceRunResult{
				{Source: domain.SourceAPISports, State: domain.StateCompleted, API: domain.APIStats{Calls: 2, TotalLatency: time.Second}},
				{Source: domain.SourceAPIFootball, State: domain.StateCompleted},
			},
		}
		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := db.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "b" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if len(runs[0].Sources) != 2 {
		t.Errorf("expected 2 rows, got %d", len(runs[0].Sources))
	}
	for _, s := range runs[0].Sources {
		if s.Source == string(domain.SourceAPISports) && s.AvgLatencySecs != 0.5 {
			t.Errorf("expected avg latency 0.5s, got %v", s.AvgLatencySecs)
		}
	}
}
