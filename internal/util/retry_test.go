// ABOUTME: Tests for retry utilities
// ABOUTME: Covers backoff bounds, jitter, context-aware sleep, and the retry loop
package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoff_NonPositive(t *testing.T) {
	for _, attempt := range []int{0, -1, -100} {
		if got := CalculateBackoff(time.Second, attempt); got != 0 {
			t.Errorf("CalculateBackoff(1s, %d) = %v, want 0", attempt, got)
		}
	}
	if got := CalculateBackoff(0, 3); got != 0 {
		t.Errorf("CalculateBackoff(0, 3) = %v, want 0", got)
	}
}

func TestCalculateBackoff_Bounds(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 1; attempt <= 5; attempt++ {
		expected := base * time.Duration(1<<uint(attempt))
		lo, hi := expected*3/4, expected*5/4

		got := CalculateBackoff(base, attempt)
		if got < lo || got > hi {
			t.Errorf("attempt %d: backoff = %v, want within [%v, %v]", attempt, got, lo, hi)
		}
	}
}

func TestCalculateBackoff_Capped(t *testing.T) {
	limit := maxBackoff * 5 / 4
	for _, attempt := range []int{10, 31, 100} {
		got := CalculateBackoff(time.Second, attempt)
		if got > limit || got < 0 {
			t.Errorf("attempt %d: backoff = %v, want within [0, %v]", attempt, got, limit)
		}
	}
}

func TestCalculateBackoff_Jitter(t *testing.T) {
	first := CalculateBackoff(time.Second, 2)
	for i := 0; i < 100; i++ {
		if CalculateBackoff(time.Second, 2) != first {
			return
		}
	}
	t.Error("100 backoff samples were identical, want jitter")
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly on cancellation")
	}
}

func TestSleep_Elapses(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	errLast := errors.New("still down")
	err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return errLast
	})
	if !errors.Is(err, errLast) {
		t.Errorf("Retry() error = %v, want %v", err, errLast)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	errBad := errors.New("bad request")
	err := Retry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return Permanent(errBad)
	})
	if err != errBad {
		t.Errorf("Retry() error = %v, want unwrapped %v", err, errBad)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
