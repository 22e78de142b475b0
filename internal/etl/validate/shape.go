package validate

import "github.com/vietddude/standings/internal/core/domain"

// EnvelopeKind is the JSON kind of a response root.
type EnvelopeKind string

const (
	EnvelopeObject EnvelopeKind = "object"
	EnvelopeList   EnvelopeKind = "list"
)

// Shape describes where records live in one endpoint's response.
type Shape struct {
	Envelope EnvelopeKind
	// RecordsPath is the dotted path from the root to the record list.
	// Empty means the root itself is the list.
	RecordsPath string
	// KeyPath locates the team id inside one record, used for joining.
	KeyPath string
}

// DefaultShapes holds the observed response layouts of both sources.
var DefaultShapes = map[domain.SourceID]map[domain.EndpointKind]Shape{
	domain.SourceAPISports: {
		domain.EndpointTeams: {
			Envelope:    EnvelopeObject,
			RecordsPath: "response",
			KeyPath:     "team.id",
		},
		domain.EndpointStandings: {
			Envelope:    EnvelopeObject,
			RecordsPath: "response.0.league.standings.0",
			KeyPath:     "team.id",
		},
	},
	domain.SourceAPIFootball: {
		domain.EndpointTeams: {
			Envelope: EnvelopeList,
			KeyPath:  "team_key",
		},
		domain.EndpointStandings: {
			Envelope: EnvelopeList,
			KeyPath:  "team_id",
		},
	},
}

// Policy maps an issue kind to its severity.
type Policy map[domain.IssueKind]domain.Severity

// DefaultPolicy only treats a broken envelope as fatal.
var DefaultPolicy = Policy{
	domain.IssueEnvelopeShape:     domain.SeverityFatal,
	domain.IssueEmptyEnvelope:     domain.SeverityWarning,
	domain.IssueRecordShape:       domain.SeverityWarning,
	domain.IssueMissingRequired:   domain.SeverityWarning,
	domain.IssueUnmatchedStanding: domain.SeverityWarning,
	domain.IssueDuplicateTeam:     domain.SeverityWarning,
}

// Severity returns the configured severity of kind. Unknown kinds are
// warnings, except envelope_shape which is always fatal.
func (p Policy) Severity(kind domain.IssueKind) domain.Severity {
	if kind == domain.IssueEnvelopeShape {
		return domain.SeverityFatal
	}
	if s, ok := p[kind]; ok {
		return s
	}
	if s, ok := DefaultPolicy[kind]; ok {
		return s
	}
	return domain.SeverityWarning
}

// Merge returns a copy of p with overrides applied.
func (p Policy) Merge(overrides map[domain.IssueKind]domain.Severity) Policy {
	out := make(Policy, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
