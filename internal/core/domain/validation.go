package domain

// Severity of a validation issue.
type Severity string

const (
	// SeverityFatal blocks transformation of the whole response.
	SeverityFatal Severity = "fatal"
	// SeverityWarning excludes only the affected record.
	SeverityWarning Severity = "warning"
)

// IssueKind names the structural check that produced an issue.
type IssueKind string

const (
	IssueEnvelopeShape     IssueKind = "envelope_shape"
	IssueEmptyEnvelope     IssueKind = "empty_envelope"
	IssueRecordShape       IssueKind = "record_shape"
	IssueMissingRequired   IssueKind = "missing_required"
	IssueUnmatchedStanding IssueKind = "unmatched_standing"
	IssueDuplicateTeam     IssueKind = "duplicate_team"
)

// ValidationIssue is attached to one raw record or one response envelope.
type ValidationIssue struct {
	Severity Severity  `json:"severity"`
	Kind     IssueKind `json:"kind"`
	Field    string    `json:"field,omitempty"`
	Message  string    `json:"message"`
	// Record is the offending raw record, nil for envelope issues.
	Record any `json:"-"`
}
