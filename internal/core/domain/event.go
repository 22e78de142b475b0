package domain

import (
	"encoding/json"
	"time"
)

// ErrorCategory classifies where in the pipeline a failure happened.
type ErrorCategory string

const (
	CategoryExtraction     ErrorCategory = "extraction"
	CategoryValidation     ErrorCategory = "validation"
	CategoryTransformation ErrorCategory = "transformation"
	CategoryLoad           ErrorCategory = "load"
)

// Categories lists every category in report order.
var Categories = []ErrorCategory{
	CategoryExtraction,
	CategoryValidation,
	CategoryTransformation,
	CategoryLoad,
}

// ErrorEvent is one recorded failure. Context holds the raw payload
// fragment (if any) serialized at record time.
type ErrorEvent struct {
	ID        string          `json:"id"`
	Category  ErrorCategory   `json:"category"`
	Source    SourceID        `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Message   string          `json:"message"`
	Context   json.RawMessage `json:"context,omitempty"`
}

// CategorySummary aggregates the events of one category.
type CategorySummary struct {
	Category ErrorCategory `json:"category"`
	Count    int           `json:"count"`
	Events   []ErrorEvent  `json:"events"`
}
