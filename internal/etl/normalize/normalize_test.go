package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/vietddude/standings/internal/core/domain"
)

func mustMapping(t *testing.T, src domain.SourceID) Mapping {
	t.Helper()
	m, err := DefaultMapping(src)
	if err != nil {
		t.Fatalf("DefaultMapping(%s): %v", src, err)
	}
	return m
}

func TestNormalize_APISportsComputesGoalDiff(t *testing.T) {
	raw := map[string]any{
		"teams": map[string]any{
			"team": map[string]any{
				"id":      json.Number("42"),
				"name":    "Arsenal",
				"country": "England",
				"founded": json.Number("1886"),
			},
			"venue": map[string]any{
				"name":     "Emirates Stadium",
				"city":     "London",
				"capacity": json.Number("60704"),
			},
		},
		"standings": map[string]any{
			"team":   map[string]any{"id": json.Number("42")},
			"rank":   json.Number("2"),
			"points": json.Number("84"),
			"all": map[string]any{
				"win":   json.Number("26"),
				"draw":  json.Number("6"),
				"lose":  json.Number("6"),
				"goals": map[string]any{"for": json.Number("60"), "against": json.Number("30")},
			},
		},
	}

	rec, err := Normalize(raw, mustMapping(t, domain.SourceAPISports))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GoalDiff == nil || *rec.GoalDiff != 30 {
		t.Fatalf("expected goal_diff 30, got %v", rec.GoalDiff)
	}
	if rec.TeamID != 42 || rec.Name != "Arsenal" || rec.Rank != 2 || rec.Points != 84 {
		t.Errorf("unexpected required fields: %+v", rec)
	}
	if rec.Stadium == nil || *rec.Stadium != "Emirates Stadium" {
		t.Errorf("unexpected stadium: %v", rec.Stadium)
	}
	if rec.Capacity == nil || *rec.Capacity != 60704 {
		t.Errorf("unexpected capacity: %v", rec.Capacity)
	}
}

func TestNormalize_APIFootballIgnoresSuppliedGoalDiff(t *testing.T) {
	raw := map[string]any{
		"teams": map[string]any{
			"team_key":     "141",
			"team_name":    "Arsenal",
			"team_country": "England",
			"team_founded": "1886",
			"venue": map[string]any{
				"venue_name":     "Emirates Stadium",
				"venue_city":     "London",
				"venue_capacity": "60,704",
			},
		},
		"standings": map[string]any{
			"team_id":                 "141",
			"overall_league_position": "1",
			"overall_league_PTS":      "89",
			"overall_league_GF":       "40",
			"overall_league_GA":       "20",
			"overall_league_W":        "28",
			"overall_league_D":        "5",
			"overall_league_L":        "5",
			"goal_diff":               "99",
		},
	}

	m := mustMapping(t, domain.SourceAPIFootball)
	m = m.Merge(Mapping{"goal_diff": {Paths: []string{"standings.goal_diff"}, Computed: goalDiffRule}})

	rec, err := Normalize(raw, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GoalDiff == nil || *rec.GoalDiff != 20 {
		t.Fatalf("expected goal_diff 20, got %v", rec.GoalDiff)
	}
	if rec.Capacity == nil || *rec.Capacity != 60704 {
		t.Errorf("expected capacity 60704, got %v", rec.Capacity)
	}
	if rec.Founded == nil || *rec.Founded != 1886 {
		t.Errorf("expected founded 1886, got %v", rec.Founded)
	}
}

func TestNormalize_CapacityFallbackPath(t *testing.T) {
	raw := map[string]any{
		"teams": map[string]any{
			"team_key":  "7",
			"team_name": "Fulham",
			"venue":     map[string]any{"capacity": json.Number("29600")},
		},
		"standings": map[string]any{
			"overall_league_position": "13",
			"overall_league_PTS":      "47",
		},
	}

	rec, err := Normalize(raw, mustMapping(t, domain.SourceAPIFootball))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Capacity == nil || *rec.Capacity != 29600 {
		t.Errorf("expected capacity from fallback path, got %v", rec.Capacity)
	}
	if rec.GoalDiff != nil {
		t.Errorf("expected nil goal_diff when goals are missing, got %d", *rec.GoalDiff)
	}
	if rec.Country != nil || rec.Win != nil {
		t.Error("expected absent optional fields to be nil")
	}
}

func TestNormalize_Errors(t *testing.T) {
	m := mustMapping(t, domain.SourceAPIFootball)
	base := func() map[string]any {
		return map[string]any{
			"teams":     map[string]any{"team_key": "1", "team_name": "A"},
			"standings": map[string]any{"overall_league_position": "1", "overall_league_PTS": "3"},
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
		expect error
	}{
		{"missing rank", func(r map[string]any) {
			delete(r["standings"].(map[string]any), "overall_league_position")
		}, "rank", ErrUnresolved},
		{"empty name", func(r map[string]any) {
			r["teams"].(map[string]any)["team_name"] = ""
		}, "name", ErrUnresolved},
		{"non numeric points", func(r map[string]any) {
			r["standings"].(map[string]any)["overall_league_PTS"] = "many"
		}, "points", ErrInvalidValue},
		{"fractional id", func(r map[string]any) {
			r["teams"].(map[string]any)["team_key"] = json.Number("1.5")
		}, "team_id", ErrInvalidValue},
		{"bool founded", func(r map[string]any) {
			r["teams"].(map[string]any)["team_founded"] = true
		}, "founded", ErrInvalidValue},
		{"capacity beyond int64", func(r map[string]any) {
			r["teams"].(map[string]any)["venue"] = map[string]any{"venue_capacity": "1e19"}
		}, "capacity", ErrInvalidValue},
		{"goals beyond int64", func(r map[string]any) {
			r["standings"].(map[string]any)["overall_league_GF"] = json.Number("1e19")
		}, "goals_for", ErrInvalidValue},
		{"infinite points", func(r map[string]any) {
			r["standings"].(map[string]any)["overall_league_PTS"] = math.Inf(1)
		}, "points", ErrInvalidValue},
		{"goal diff overflow", func(r map[string]any) {
			st := r["standings"].(map[string]any)
			st["overall_league_GF"] = "9223372036854775807"
			st["overall_league_GA"] = "-5"
		}, "goal_diff", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			tt.mutate(raw)
			_, err := Normalize(raw, m)
			var terr *TransformationError
			if !errors.As(err, &terr) {
				t.Fatalf("expected TransformationError, got %v", err)
			}
			if terr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, terr.Field)
			}
			if !errors.Is(err, tt.expect) {
				t.Errorf("expected %v, got %v", tt.expect, err)
			}
		})
	}
}

func TestNormalize_GoalDiffProperty(t *testing.T) {
	f := gofakeit.New(7)
	m := mustMapping(t, domain.SourceAPIFootball)

	for i := 0; i < 100; i++ {
		gf, ga := f.Number(0, 120), f.Number(0, 120)
		raw := map[string]any{
			"teams": map[string]any{
				"team_key":  strconv.Itoa(f.Number(1, 100000)),
				"team_name": f.Company(),
			},
			"standings": map[string]any{
				"overall_league_position": strconv.Itoa(f.Number(1, 20)),
				"overall_league_PTS":      strconv.Itoa(f.Number(0, 114)),
				"overall_league_GF":       strconv.Itoa(gf),
				"overall_league_GA":       strconv.Itoa(ga),
			},
		}
		rec, err := Normalize(raw, m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.GoalDiff == nil || *rec.GoalDiff != int64(gf-ga) {
			t.Fatalf("goal_diff = %v, want %d", rec.GoalDiff, gf-ga)
		}
		if rec.Name == "" {
			t.Fatal("name must be set")
		}
	}
}

func TestMapping_Validate(t *testing.T) {
	for src, m := range DefaultMappings {
		if err := m.Validate(); err != nil {
			t.Errorf("%s default mapping invalid: %v", src, err)
		}
	}

	m := mustMapping(t, domain.SourceAPISports)
	bad := m.Merge(Mapping{"goal_diff": {Paths: []string{"standings.goalsDiff"}}})
	if err := bad.Validate(); err == nil {
		t.Error("expected error when goal_diff is not computed")
	}

	bad = m.Merge(Mapping{"colour": {Paths: []string{"teams.team.colour"}}})
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown field")
	}

	bad = m.Merge(Mapping{"goal_diff": {Computed: "name - points"}})
	if err := bad.Validate(); err == nil {
		t.Error("expected error for computed rule on string field")
	}

	req := m.Required()
	if len(req) != len(RequiredFields) || len(req["team_id"]) == 0 {
		t.Errorf("unexpected required paths: %v", req)
	}
}
