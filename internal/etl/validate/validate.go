// Package validate checks raw payloads against the per-source shape
// descriptors and required-field rules before normalization.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/core/rawpath"
)

var (
	ErrEnvelopeShape = errors.New("envelope shape mismatch")
	ErrRequiredField = errors.New("required field missing")
	ErrFatalIssue    = errors.New("fatal validation issue")
)

// Result is the outcome of one validation step.
type Result struct {
	// Records are the candidates that passed this step.
	Records []any
	// Issues holds every issue found, fatal or not.
	Issues []domain.ValidationIssue
	// Total is the number of candidates inspected.
	Total int
}

// Fatal reports whether any issue is fatal.
func (r Result) Fatal() bool {
	for _, is := range r.Issues {
		if is.Severity == domain.SeverityFatal {
			return true
		}
	}
	return false
}

// Err returns the first fatal issue as an error, or nil.
func (r Result) Err() error {
	for _, is := range r.Issues {
		if is.Severity != domain.SeverityFatal {
			continue
		}
		switch is.Kind {
		case domain.IssueEnvelopeShape:
			return fmt.Errorf("%w: %s", ErrEnvelopeShape, is.Message)
		case domain.IssueMissingRequired:
			return fmt.Errorf("%w: %s", ErrRequiredField, is.Message)
		default:
			return fmt.Errorf("%w: %s: %s", ErrFatalIssue, is.Kind, is.Message)
		}
	}
	return nil
}

// Validator applies shape descriptors and a severity policy.
type Validator struct {
	shapes map[domain.SourceID]map[domain.EndpointKind]Shape
	policy Policy
}

// New creates a validator. Nil arguments fall back to the defaults.
func New(shapes map[domain.SourceID]map[domain.EndpointKind]Shape, policy Policy) *Validator {
	if shapes == nil {
		shapes = DefaultShapes
	}
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Validator{shapes: shapes, policy: policy}
}

func (v *Validator) issue(kind domain.IssueKind, field, msg string, record any) domain.ValidationIssue {
	return domain.ValidationIssue{
		Severity: v.policy.Severity(kind),
		Kind:     kind,
		Field:    field,
		Message:  msg,
		Record:   record,
	}
}

func (v *Validator) shape(src domain.SourceID, endpoint domain.EndpointKind) (Shape, bool) {
	byEndpoint, ok := v.shapes[src]
	if !ok {
		return Shape{}, false
	}
	s, ok := byEndpoint[endpoint]
	return s, ok
}

// Envelope checks raw against the shape of src/endpoint and extracts its
// record list. Non-object records are excluded with a record_shape issue.
func (v *Validator) Envelope(src domain.SourceID, endpoint domain.EndpointKind, raw any) Result {
	var res Result

	shape, ok := v.shape(src, endpoint)
	if !ok {
		res.Issues = append(res.Issues, v.issue(domain.IssueEnvelopeShape, "",
			fmt.Sprintf("no shape registered for %s/%s", src, endpoint), nil))
		return res
	}

	if got := rawpath.Kind(raw); got != string(shape.Envelope) {
		res.Issues = append(res.Issues, v.issue(domain.IssueEnvelopeShape, "",
			fmt.Sprintf("expected %s envelope, got %s", shape.Envelope, got), nil))
		return res
	}

	list, empty, msg := walkRecords(raw, shape.RecordsPath)
	if empty {
		res.Issues = append(res.Issues, v.issue(domain.IssueEmptyEnvelope, shape.RecordsPath,
			fmt.Sprintf("%s/%s returned no records", src, endpoint), nil))
		return res
	}
	if msg != "" {
		res.Issues = append(res.Issues, v.issue(domain.IssueEnvelopeShape, shape.RecordsPath, msg, nil))
		return res
	}

	res.Total = len(list)
	for i, rec := range list {
		if _, ok := rec.(map[string]any); !ok {
			res.Issues = append(res.Issues, v.issue(domain.IssueRecordShape, "",
				fmt.Sprintf("record %d: expected object, got %s", i, rawpath.Kind(rec)), rec))
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// walkRecords follows path to a list. It reports empty when the walk ends
// at, or passes through, an empty list; otherwise a non-empty msg describes
// the mismatch.
func walkRecords(raw any, path string) (list []any, empty bool, msg string) {
	cur := raw
	walked := "$"
	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			if l, ok := cur.([]any); ok && len(l) == 0 {
				return nil, true, ""
			}
			next, ok := rawpath.Lookup(cur, seg)
			if !ok {
				return nil, false, fmt.Sprintf("expected %q under %s, not found in %s", seg, walked, rawpath.Kind(cur))
			}
			walked += "." + seg
			cur = next
		}
	}
	l, ok := cur.([]any)
	if !ok {
		return nil, false, fmt.Sprintf("expected list at %s, got %s", walked, rawpath.Kind(cur))
	}
	if len(l) == 0 {
		return nil, true, ""
	}
	return l, false, ""
}

// Join pairs each team record with the standings record of the same team.
// Joined records are {"teams": team, "standings": standing}. Teams without a
// standings entry get an unmatched_standing issue, teams without an id a
// missing_required issue. Only the first team entry per id is kept; repeats
// get a duplicate_team issue.
func (v *Validator) Join(src domain.SourceID, teams, standings []any) Result {
	res := Result{Total: len(teams)}
	teamShape, _ := v.shape(src, domain.EndpointTeams)
	standShape, _ := v.shape(src, domain.EndpointStandings)

	byKey := make(map[string]any, len(standings))
	for _, s := range standings {
		key, ok := joinKey(s, standShape.KeyPath)
		if !ok {
			continue
		}
		if _, dup := byKey[key]; !dup {
			byKey[key] = s
		}
	}

	seen := make(map[string]bool, len(teams))
	for _, team := range teams {
		key, ok := joinKey(team, teamShape.KeyPath)
		if !ok {
			res.Issues = append(res.Issues, v.issue(domain.IssueMissingRequired, "team_id",
				fmt.Sprintf("team has no %s", teamShape.KeyPath), team))
			continue
		}
		if seen[key] {
			res.Issues = append(res.Issues, v.issue(domain.IssueDuplicateTeam, "team_id",
				fmt.Sprintf("team %s appears more than once", key), team))
			continue
		}
		seen[key] = true
		standing, ok := byKey[key]
		if !ok {
			res.Issues = append(res.Issues, v.issue(domain.IssueUnmatchedStanding, "team_id",
				fmt.Sprintf("team %s has no standings entry", key), team))
			continue
		}
		res.Records = append(res.Records, map[string]any{
			"teams":     team,
			"standings": standing,
		})
	}
	return res
}

func joinKey(rec any, path string) (string, bool) {
	v, ok := rawpath.Present(rec, path)
	if !ok {
		return "", false
	}
	key := strings.TrimSpace(fmt.Sprint(v))
	return key, key != ""
}

// Required checks each record for the fields in required (field name to
// candidate paths, first present wins). Records missing any field are
// excluded with a missing_required issue; siblings continue.
func (v *Validator) Required(records []any, required map[string][]string, order []string) Result {
	res := Result{Total: len(records)}
	for _, rec := range records {
		var missing []string
		for _, field := range order {
			if !anyPresent(rec, required[field]) {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			res.Issues = append(res.Issues, v.issue(domain.IssueMissingRequired, strings.Join(missing, ","),
				fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), rec))
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func anyPresent(rec any, paths []string) bool {
	for _, p := range paths {
		val, ok := rawpath.Present(rec, p)
		if !ok {
			continue
		}
		if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return true
	}
	return false
}
