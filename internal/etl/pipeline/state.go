package pipeline

import (
	"errors"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

// State is an alias for domain.PipelineState for internal use.
type State = domain.PipelineState

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	domain.StatePending:      {domain.StateExtracting, domain.StateFailed},
	domain.StateExtracting:   {domain.StateValidating, domain.StateFailed},
	domain.StateValidating:   {domain.StateTransforming, domain.StateFailed},
	domain.StateTransforming: {domain.StateLoading, domain.StateFailed},
	domain.StateLoading:      {domain.StateCompleted, domain.StateFailed},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	validTargets, ok := ValidTransitions[from]
	if !ok {
		return false
	}

	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// Transition represents a state change with metadata.
type Transition struct {
	From      State
	To        State
	Reason    string
	Timestamp time.Time
}

// NewTransition creates a new transition record.
func NewTransition(from, to State, reason string) Transition {
	return Transition{
		From:      from,
		To:        to,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// StateDescription returns a human-readable description of a state.
func StateDescription(s State) string {
	switch s {
	case domain.StatePending:
		return "Pending - pipeline created, not yet started"
	case domain.StateExtracting:
		return "Extracting - fetching teams and standings"
	case domain.StateValidating:
		return "Validating - checking envelopes and required fields"
	case domain.StateTransforming:
		return "Transforming - mapping records to the canonical schema"
	case domain.StateLoading:
		return "Loading - writing records to the sink"
	case domain.StateCompleted:
		return "Completed - all records handed to the loader"
	case domain.StateFailed:
		return "Failed - stopped by a stage-level error"
	default:
		return "Unknown state"
	}
}
