package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func captureSleeps(t *testing.T) *[]time.Duration {
	t.Helper()

	recorded := []time.Duration{}
	original := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		recorded = append(recorded, d)
		return nil
	}
	t.Cleanup(func() { sleep = original })
	return &recorded
}

func TestDoRetriesTransientFailuresWithExponentialBackoff(t *testing.T) {
	delays := captureSleeps(t)

	attempts := 0
	result, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts <= 2 {
			return "", errors.New("503 service overloaded")
		}
		return "ok", nil
	}, WithBaseDelay(100*time.Millisecond))
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected result %q, got %q", "ok", result)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d backoff delays, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("expected delay %d to be %v, got %v", i, d, (*delays)[i])
		}
	}
}

func TestDoFailsAfterMaxAttemptsWithoutFinalDelay(t *testing.T) {
	delays := captureSleeps(t)

	attempts := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("quota exceeded")
	}, WithBaseDelay(time.Millisecond))
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if attempts != DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", DefaultMaxAttempts, attempts)
	}
	if len(*delays) != DefaultMaxAttempts-1 {
		t.Fatalf("expected %d delays (none after the final attempt), got %d", DefaultMaxAttempts-1, len(*delays))
	}

	var callErr *Error
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *remote.Error, got %T", err)
	}
	if !callErr.Transient {
		t.Fatal("expected final error to stay classified as transient")
	}
	if callErr.Attempts != DefaultMaxAttempts {
		t.Fatalf("expected error to report %d attempts, got %d", DefaultMaxAttempts, callErr.Attempts)
	}
}

func TestDoPropagatesPermanentFailuresImmediately(t *testing.T) {
	delays := captureSleeps(t)

	attempts := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("malformed response payload")
	})
	if err == nil {
		t.Fatal("expected permanent failure to propagate")
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
	if len(*delays) != 0 {
		t.Fatalf("expected no backoff for a permanent failure, got %d delays", len(*delays))
	}

	var callErr *Error
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *remote.Error, got %T", err)
	}
	if callErr.Transient {
		t.Fatal("expected permanent classification")
	}
}

func TestDoRespectsCustomAttemptBudget(t *testing.T) {
	captureSleeps(t)

	attempts := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, errors.New("429 too many requests")
	}, WithMaxAttempts(5), WithBaseDelay(time.Millisecond))
	if err == nil {
		t.Fatal("expected failure")
	}
	if attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", attempts)
	}
}

func TestIsTransientClassification(t *testing.T) {
	cases := []struct {
		err       error
		transient bool
	}{
		{errors.New("HTTP 503 from upstream"), true},
		{errors.New("model is OVERLOADED right now"), true},
		{errors.New("service Unavailable"), true},
		{errors.New("quota exhausted for project"), true},
		{errors.New("429: slow down"), true},
		{errors.New("invalid api key"), false},
		{errors.New("missing payload"), false},
		{nil, false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.transient {
			t.Fatalf("IsTransient(%v) = %t, expected %t", tc.err, got, tc.transient)
		}
	}
}

func TestDoAbortsWhenContextCancelledDuringBackoff(t *testing.T) {
	original := sleep
	sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }
	t.Cleanup(func() { sleep = original })

	attempts := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, fmt.Errorf("503: attempt %d", attempts)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation to surface, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected no retry after cancelled backoff, got %d attempts", attempts)
	}
}
