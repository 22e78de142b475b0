// Package report classifies run outcomes and renders run reports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

// MaxDetails is the number of events listed per category in text output.
const MaxDetails = 5

// Classify derives the run classification from the source results.
func Classify(results []domain.SourceRunResult) domain.Classification {
	completed := 0
	for _, r := range results {
		if r.Succeeded() {
			completed++
		}
	}
	switch {
	case len(results) > 0 && completed == len(results):
		return domain.ClassificationSuccess
	case completed == 0:
		return domain.ClassificationCriticalFailure
	default:
		return domain.ClassificationPartialFailure
	}
}

// Build assembles a report. results keep their given order and errors must
// hold one summary per category.
func Build(runID, season string, started, finished time.Time, results []domain.SourceRunResult, errors []domain.CategorySummary) domain.RunReport {
	return domain.RunReport{
		RunID:          runID,
		Season:         season,
		StartedAt:      started,
		FinishedAt:     finished,
		Classification: Classify(results),
		Sources:        results,
		Errors:         errors,
	}
}

// Subject returns the alert subject line for the report.
func Subject(r domain.RunReport) string {
	switch r.Classification {
	case domain.ClassificationSuccess:
		return "SUCCESS: ETL Pipeline Completed Successfully"
	case domain.ClassificationPartialFailure:
		return "WARNING: ETL Pipeline Partial Failure"
	default:
		return "CRITICAL: ETL Pipeline Complete Failure"
	}
}

func statusLine(c domain.Classification) (status, message string) {
	switch c {
	case domain.ClassificationSuccess:
		return "SUCCESS", "Both API sources processed successfully."
	case domain.ClassificationPartialFailure:
		return "PARTIAL FAILURE", "One API source failed, but data was partially processed."
	default:
		return "CRITICAL FAILURE", "Both API sources failed to process."
	}
}

// Text renders the report as the plain-text status report used for email
// bodies and the CLI summary.
func Text(r domain.RunReport) string {
	var b strings.Builder
	rule := strings.Repeat("=", 50)
	status, message := statusLine(r.Classification)

	fmt.Fprintf(&b, "Standings ETL Pipeline - Status Report\n%s\n\n", rule)
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Season: %s\n", r.Season)
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Timestamp: %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %s\n\n", r.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "%s\n\n", message)

	b.WriteString("Pipeline Results:\n")
	for _, s := range r.Sources {
		outcome := "Success"
		if !s.Succeeded() {
			outcome = "Failed"
			if s.FailedAt != "" {
				outcome = fmt.Sprintf("Failed at %s", s.FailedAt)
			}
		}
		c := s.Counts
		fmt.Fprintf(&b, "  - %s: %s (fetched=%d validated=%d rejected=%d transformed=%d skipped=%d loaded=%d)\n",
			s.Source.DisplayName(), outcome,
			c.Fetched, c.Validated, c.Rejected, c.Transformed, c.Skipped, c.Loaded)
		if s.Reason != "" {
			fmt.Fprintf(&b, "      reason: %s\n", s.Reason)
		}
	}

	fmt.Fprintf(&b, "\nError Summary:\n  - Total Errors: %d\n", r.TotalErrors())
	b.WriteString("\nError Breakdown:\n")
	for _, cat := range r.Errors {
		fmt.Fprintf(&b, "  - %s: %d errors\n", strings.ToUpper(string(cat.Category)), cat.Count)
		for i, ev := range cat.Events {
			if i == MaxDetails {
				fmt.Fprintf(&b, "      ... and %d more\n", len(cat.Events)-MaxDetails)
				break
			}
			fmt.Fprintf(&b, "      [%s] %s\n", ev.Source.DisplayName(), ev.Message)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}
