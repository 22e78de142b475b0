package normalize

import (
	"fmt"
	"strings"

	"github.com/vietddude/standings/internal/core/domain"
)

// FieldRule resolves one canonical field. Paths are tried in order and the
// first present value wins. Computed, when set, replaces path lookup with a
// subtraction of two other integer fields, e.g. "goals_for - goals_against".
type FieldRule struct {
	Paths    []string `yaml:"paths"    json:"paths,omitempty"`
	Computed string   `yaml:"computed" json:"computed,omitempty"`
}

// Mapping maps canonical field names to rules.
type Mapping map[string]FieldRule

// RequiredFields are always non-null in emitted records.
var RequiredFields = []string{"team_id", "name", "rank", "points"}

var stringFields = map[string]bool{
	"name":    true,
	"country": true,
	"stadium": true,
	"city":    true,
}

const goalDiffRule = "goals_for - goals_against"

// DefaultMappings are the built-in mapping tables. Paths address the joined
// record, so they start with "teams." or "standings.".
var DefaultMappings = map[domain.SourceID]Mapping{
	domain.SourceAPISports: {
		"team_id":       {Paths: []string{"teams.team.id", "standings.team.id"}},
		"name":          {Paths: []string{"teams.team.name", "standings.team.name"}},
		"country":       {Paths: []string{"teams.team.country"}},
		"founded":       {Paths: []string{"teams.team.founded"}},
		"stadium":       {Paths: []string{"teams.venue.name"}},
		"city":          {Paths: []string{"teams.venue.city"}},
		"capacity":      {Paths: []string{"teams.venue.capacity"}},
		"rank":          {Paths: []string{"standings.rank"}},
		"points":        {Paths: []string{"standings.points"}},
		"goal_diff":     {Computed: goalDiffRule},
		"goals_for":     {Paths: []string{"standings.all.goals.for"}},
		"goals_against": {Paths: []string{"standings.all.goals.against"}},
		"win":           {Paths: []string{"standings.all.win"}},
		"draw":          {Paths: []string{"standings.all.draw"}},
		"lose":          {Paths: []string{"standings.all.lose"}},
	},
	domain.SourceAPIFootball: {
		"team_id":       {Paths: []string{"teams.team_key", "standings.team_id"}},
		"name":          {Paths: []string{"teams.team_name", "standings.team_name"}},
		"country":       {Paths: []string{"teams.team_country"}},
		"founded":       {Paths: []string{"teams.team_founded"}},
		"stadium":       {Paths: []string{"teams.venue.venue_name"}},
		"city":          {Paths: []string{"teams.venue.venue_city"}},
		"capacity":      {Paths: []string{"teams.venue.venue_capacity", "teams.venue.capacity"}},
		"rank":          {Paths: []string{"standings.overall_league_position"}},
		"points":        {Paths: []string{"standings.overall_league_PTS"}},
		"goal_diff":     {Computed: goalDiffRule},
		"goals_for":     {Paths: []string{"standings.overall_league_GF"}},
		"goals_against": {Paths: []string{"standings.overall_league_GA"}},
		"win":           {Paths: []string{"standings.overall_league_W"}},
		"draw":          {Paths: []string{"standings.overall_league_D"}},
		"lose":          {Paths: []string{"standings.overall_league_L"}},
	},
}

// DefaultMapping returns a copy of the built-in mapping of src.
func DefaultMapping(src domain.SourceID) (Mapping, error) {
	m, ok := DefaultMappings[src]
	if !ok {
		return nil, fmt.Errorf("no mapping for source %s", src)
	}
	return m.Merge(nil), nil
}

// Merge returns a copy of m where each overridden field replaces the
// built-in rule entirely.
func (m Mapping) Merge(overrides Mapping) Mapping {
	out := make(Mapping, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Validate checks that every canonical field has a usable rule and that
// goal_diff stays derived.
func (m Mapping) Validate() error {
	for _, field := range domain.TeamColumns {
		rule, ok := m[field]
		if !ok {
			return fmt.Errorf("mapping: no rule for field %s", field)
		}
		if rule.Computed == "" && len(rule.Paths) == 0 {
			return fmt.Errorf("mapping: field %s has neither paths nor computed rule", field)
		}
		if rule.Computed != "" {
			if _, _, err := parseComputed(rule.Computed); err != nil {
				return fmt.Errorf("mapping: field %s: %w", field, err)
			}
		}
	}
	for field := range m {
		if !isColumn(field) {
			return fmt.Errorf("mapping: unknown field %s", field)
		}
	}
	if m["goal_diff"].Computed == "" {
		return fmt.Errorf("mapping: goal_diff must be computed")
	}
	return nil
}

// Required returns the candidate paths of the required fields, for use by
// the validator.
func (m Mapping) Required() map[string][]string {
	out := make(map[string][]string, len(RequiredFields))
	for _, f := range RequiredFields {
		out[f] = m[f].Paths
	}
	return out
}

func isColumn(field string) bool {
	for _, c := range domain.TeamColumns {
		if c == field {
			return true
		}
	}
	return false
}

func parseComputed(expr string) (left, right string, err error) {
	parts := strings.Split(expr, "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("unsupported computed rule %q", expr)
	}
	left, right = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	for _, f := range []string{left, right} {
		if !isColumn(f) || stringFields[f] || f == "goal_diff" {
			return "", "", fmt.Errorf("computed rule %q references invalid field %q", expr, f)
		}
	}
	return left, right, nil
}
