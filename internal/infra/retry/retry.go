// Package retry provides the bounded-attempt combinator used around every
// source API call.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Config defines retry behavior.
type Config struct {
	// MaxAttempts is the attempt ceiling, including the first call.
	MaxAttempts int `yaml:"max_attempts"`
	// Schedule holds the wait after the n-th failed attempt at index n-1.
	// When shorter than needed the last entry is reused.
	Schedule []time.Duration `yaml:"schedule"`
}

// DefaultConfig mirrors the production schedule: three attempts, waiting
// 5s then 10s (15s is used when the ceiling is raised).
var DefaultConfig = Config{
	MaxAttempts: 3,
	Schedule:    []time.Duration{5 * time.Second, 10 * time.Second, 15 * time.Second},
}

// Immediate returns a config with a zero-delay schedule.
func Immediate(attempts int) Config {
	return Config{MaxAttempts: attempts, Schedule: []time.Duration{0}}
}

// Delay returns the wait after the given failed attempt (1-based).
func (c Config) Delay(attempt int) time.Duration {
	if len(c.Schedule) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(c.Schedule) {
		return c.Schedule[len(c.Schedule)-1]
	}
	return c.Schedule[attempt-1]
}

func (c Config) backoff() goretry.Backoff {
	failed := 0
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		failed++
		if failed >= c.MaxAttempts {
			return 0, true
		}
		return c.Delay(failed), false
	})
}

// ExhaustedError is returned when every attempt failed or the wait was
// cancelled. Err is the last underlying error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Do stops without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do executes op until it succeeds, returns a permanent error, or the
// attempt ceiling is reached. Any failure is returned as *ExhaustedError.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		zero     T
		result   T
		lastErr  error
		attempts int
	)

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	err := goretry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempts++
		v, err := op(ctx)
		if err != nil {
			lastErr = err
			if IsPermanent(err) {
				return err
			}
			return goretry.RetryableError(err)
		}
		result = v
		return nil
	})
	if err == nil {
		return result, nil
	}

	cause := lastErr
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		if lastErr == nil {
			cause = ctxErr
		} else {
			cause = fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: cause}
}
