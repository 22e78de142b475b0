package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestConfig_Delay(t *testing.T) {
	cfg := DefaultConfig
	tests := []struct {
		attempt int
		expect  time.Duration
	}{
		{0, 0},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 15 * time.Second},
		{7, 15 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Delay(tt.attempt); got != tt.expect {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expect)
		}
	}

	if got := (Config{MaxAttempts: 3}).Delay(1); got != 0 {
		t.Errorf("empty schedule Delay(1) = %v, want 0", got)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Immediate(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset by peer")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	lastErr := errors.New("500 Internal Server Error")
	_, err := Do(context.Background(), Immediate(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, lastErr
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %T (%v)", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("expected last error to be wrapped, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentStopsEarly(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Immediate(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(errors.New("http 401: invalid key"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 1 {
		t.Errorf("expected ExhaustedError with 1 attempt, got %v", err)
	}
	if !IsPermanent(err) {
		t.Error("expected permanent marker to survive wrapping")
	}
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 3, Schedule: []time.Duration{time.Hour}}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("timeout")
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call before cancel, got %d", calls)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), Config{}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
