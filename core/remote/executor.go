// Package remote wraps fallible provider calls with classification-based
// retry. Every generation, synthesis and evaluation call goes through
// [Do] individually, so each call in a fan-out group carries its own
// retry budget.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultMaxAttempts is the total number of invocations (first try
	// included) before a transient failure is surfaced.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the backoff unit; attempt i (0-based) waits
	// DefaultBaseDelay * 2^i before retrying.
	DefaultBaseDelay = 1500 * time.Millisecond
)

// transientMarkers are matched case-insensitively against error messages.
// The providers expose no structured error codes, so message sniffing is
// the only classification signal available. Keep this list in one place;
// do not scatter substring checks across call sites.
var transientMarkers = []string{"503", "overloaded", "unavailable", "quota", "429"}

// IsTransient reports whether err looks like a retryable provider failure
// (overload, rate limit, temporary outage). Anything else is treated as
// permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Error is what Do surfaces after the retry budget is spent (or skipped,
// for permanent failures). It preserves the classification and the number
// of attempts actually made.
type Error struct {
	Err       error
	Attempts  int
	Transient bool
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("remote call failed (%s, %d attempt(s)): %v", kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Operation is a single attempt of a remote call. It must be safe to
// invoke repeatedly; Do never reuses partial results across attempts.
type Operation[T any] func(ctx context.Context) (T, error)

type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type Option func(*Options)

func WithMaxAttempts(attempts int) Option {
	return func(o *Options) {
		if attempts > 0 {
			o.MaxAttempts = attempts
		}
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(o *Options) {
		if delay >= 0 {
			o.BaseDelay = delay
		}
	}
}

// sleep is a suspension point, not a blocker: it parks this call while
// other in-flight work proceeds. Overridable so tests can observe the
// backoff schedule without real waiting.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes op until it succeeds, a permanent failure occurs, or the
// retry budget runs out. Transient failures back off exponentially
// (BaseDelay * 2^i, no jitter, no cap) between attempts; permanent
// failures and the final transient failure propagate immediately.
func Do[T any](ctx context.Context, op Operation[T], opts ...Option) (T, error) {
	options := Options{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "remote call")
	defer span.End()
	span.SetAttributes(attribute.Int("retry.max_attempts", options.MaxAttempts))

	var zero T
	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("retry.attempts", attempt+1))
			return result, nil
		}

		transient := IsTransient(err)
		if !transient || attempt+1 >= options.MaxAttempts {
			callErr := &Error{Err: err, Attempts: attempt + 1, Transient: transient}
			span.RecordError(callErr)
			span.SetStatus(codes.Error, callErr.Error())
			return zero, callErr
		}

		delay := options.BaseDelay << attempt
		logger.WarnContext(ctx, "transient remote failure, backing off",
			"attempt", attempt+1, "delay", delay.String(), "error", err)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			callErr := &Error{Err: sleepErr, Attempts: attempt + 1, Transient: false}
			span.RecordError(callErr)
			span.SetStatus(codes.Error, callErr.Error())
			return zero, callErr
		}
	}
}
