// Package normalize maps joined raw records into the canonical team record.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/rawpath"
)

var (
	ErrUnresolved   = errors.New("required field unresolved")
	ErrInvalidValue = errors.New("value cannot be coerced")
)

// TransformationError describes why a single record could not be mapped.
type TransformationError struct {
	Field string
	Value any
	Err   error
}

func (e *TransformationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("field %s (%v): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *TransformationError) Unwrap() error { return e.Err }

// Normalize maps raw into a TeamRecord using m. goal_diff is always
// recomputed and is nil when either goal count is missing.
func Normalize(raw any, m Mapping) (domain.TeamRecord, error) {
	var rec domain.TeamRecord
	ints := make(map[string]*int64)
	strs := make(map[string]*string)

	for _, field := range domain.TeamColumns {
		rule := m[field]
		if rule.Computed != "" {
			continue
		}
		val, ok := resolve(raw, rule.Paths)
		if !ok {
			continue
		}
		if stringFields[field] {
			s, err := toString(val)
			if err != nil {
				return rec, &TransformationError{Field: field, Value: val, Err: err}
			}
			strs[field] = s
			continue
		}
		n, err := toInt(val)
		if err != nil {
			return rec, &TransformationError{Field: field, Value: val, Err: err}
		}
		ints[field] = n
	}

	for _, field := range domain.TeamColumns {
		rule := m[field]
		if rule.Computed == "" {
			continue
		}
		left, right, err := parseComputed(rule.Computed)
		if err != nil {
			return rec, &TransformationError{Field: field, Err: err}
		}
		a, b := ints[left], ints[right]
		if a == nil || b == nil {
			continue
		}
		diff, ok := subtract(*a, *b)
		if !ok {
			return rec, &TransformationError{Field: field, Value: rule.Computed, Err: ErrInvalidValue}
		}
		ints[field] = &diff
	}

	for _, field := range RequiredFields {
		if stringFields[field] {
			if strs[field] == nil {
				return rec, &TransformationError{Field: field, Err: ErrUnresolved}
			}
			continue
		}
		if ints[field] == nil {
			return rec, &TransformationError{Field: field, Err: ErrUnresolved}
		}
	}

	rec.TeamID = *ints["team_id"]
	rec.Name = *strs["name"]
	rec.Rank = *ints["rank"]
	rec.Points = *ints["points"]
	rec.Country = strs["country"]
	rec.Stadium = strs["stadium"]
	rec.City = strs["city"]
	rec.Founded = ints["founded"]
	rec.Capacity = ints["capacity"]
	rec.GoalDiff = ints["goal_diff"]
	rec.GoalsFor = ints["goals_for"]
	rec.GoalsAgainst = ints["goals_against"]
	rec.Win = ints["win"]
	rec.Draw = ints["draw"]
	rec.Lose = ints["lose"]
	return rec, nil
}

// resolve returns the first present, non-empty value among paths.
func resolve(raw any, paths []string) (any, bool) {
	for _, p := range paths {
		v, ok := rawpath.Present(raw, p)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func toInt(v any) (*int64, error) {
	var n int64
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return nil, ErrInvalidValue
			}
			if i, ferr = floatToInt(f); ferr != nil {
				return nil, ferr
			}
		}
		n = i
	case float64:
		i, err := floatToInt(x)
		if err != nil {
			return nil, err
		}
		n = i
	case int:
		n = int64(x)
	case int64:
		n = x
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return nil, ErrInvalidValue
			}
			if i, ferr = floatToInt(f); ferr != nil {
				return nil, ferr
			}
		}
		n = i
	default:
		return nil, ErrInvalidValue
	}
	return &n, nil
}

// floatToInt accepts only whole numbers inside the int64 range.
func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, ErrInvalidValue
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, ErrInvalidValue
	}
	return int64(f), nil
}

// subtract returns a-b, or false when the result overflows int64.
func subtract(a, b int64) (int64, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return 0, false
	}
	return d, true
}

func toString(v any) (*string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return nil, ErrInvalidValue
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}
