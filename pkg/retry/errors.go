package retry

import (
	"fmt"
	"time"
)

// MaxRetriesError is returned when the retry budget is exhausted.
// It wraps the last failure for diagnostics.
type MaxRetriesError struct {
	MaxRetries int
	Attempts   int
	LastErr    error
}

func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("retry: reached max number of retries (%d), aborting: %v", e.MaxRetries, e.LastErr)
}

func (e *MaxRetriesError) Unwrap() error {
	return e.LastErr
}

// TimeoutError is returned when the cumulative time budget runs out before
// another attempt may start. It wraps the last failure for diagnostics.
type TimeoutError struct {
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	LastErr  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("retry: exceeded timeout of %s after %s, aborting: %v", e.Timeout, e.Elapsed, e.LastErr)
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// DeadlineError is returned when an attempt finishes past the configured
// deadline. It wraps the last failure for diagnostics.
type DeadlineError struct {
	Deadline time.Duration
	Elapsed  time.Duration
	Attempts int
	LastErr  error
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("retry: exceeded deadline of %s after %s, aborting: %v", e.Deadline, e.Elapsed, e.LastErr)
}

func (e *DeadlineError) Unwrap() error {
	return e.LastErr
}
