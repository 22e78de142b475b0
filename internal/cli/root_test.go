package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	critical := &ExitError{Code: 2, Err: errors.New("run r1 classified CRITICAL_FAILURE")}

	tests := []struct {
		name   string
		err    error
		expect int
	}{
		{"success", nil, 0},
		{"command error", errors.New("invalid config"), 1},
		{"critical run", critical, 2},
		{"wrapped critical run", fmt.Errorf("run: %w", critical), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.expect {
			t.Errorf("%s: exitCode = %d, want %d", tt.name, got, tt.expect)
		}
	}
}

func TestExitError_Unwrap(t *testing.T) {
	var exitErr *ExitError
	err := fmt.Errorf("outer: %w", &ExitError{Code: 2, Err: errors.New("critical")})
	if !errors.As(err, &exitErr) || exitErr.Error() != "critical" {
		t.Fatalf("expected ExitError to unwrap, got %v", err)
	}
}
