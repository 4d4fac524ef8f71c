package retry

import (
	"errors"
	"log/slog"
	"time"

	"retrykit/pkg/backoff"
	"retrykit/pkg/callback"
	"retrykit/pkg/failure"
)

// Policy holds immutable retry configuration. A Policy is safe for concurrent
// use: every Do call keeps its own attempt state.
type Policy struct {
	included failure.Set
	excluded failure.Set

	maxRetries int // -1 means unbounded
	timeout    time.Duration
	deadline   time.Duration

	strategy backoff.Strategy
	reraise  bool
	log      *slog.Logger

	onRetry           callback.Callback
	onSuccessfulRetry callback.Callback
	onFailure         callback.Callback

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// New creates a Policy. Invalid settings (non-positive timeout or deadline,
// negative retry budget, misconfigured backoff strategy) are rejected here,
// never at call time.
func New(opts ...Option) (*Policy, error) {
	cfg := &config{
		maxRetries: -1,
		strategy:   backoff.Fixed{},
		now:        time.Now,
		after:      time.After,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.maxRetriesSet && cfg.maxRetries < 0 {
		return nil, errors.New("retry: max retries must be non-negative")
	}
	if !cfg.maxRetriesSet {
		cfg.maxRetries = -1
	}
	if cfg.timeoutSet && cfg.timeout <= 0 {
		return nil, errors.New("retry: timeout must be positive")
	}
	if cfg.deadlineSet && cfg.deadline <= 0 {
		return nil, errors.New("retry: deadline must be positive")
	}
	if cfg.strategy == nil {
		return nil, errors.New("retry: backoff strategy cannot be nil")
	}
	if v, ok := cfg.strategy.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	return &Policy{
		included:          cfg.included,
		excluded:          cfg.excluded,
		maxRetries:        cfg.maxRetries,
		timeout:           cfg.timeout,
		deadline:          cfg.deadline,
		strategy:          cfg.strategy,
		reraise:           cfg.reraise,
		log:               cfg.log,
		onRetry:           cfg.onRetry,
		onSuccessfulRetry: cfg.onSuccessfulRetry,
		onFailure:         cfg.onFailure,
		now:               cfg.now,
		after:             cfg.after,
	}, nil
}

// Do executes fn, retrying failures according to the policy. On success the
// operation's outcome passes through unchanged. On a terminal stop it returns
// *MaxRetriesError, *TimeoutError or *DeadlineError wrapping the last failure,
// or the last failure itself when the policy was built with Reraise. Excluded
// and unmatched failures are returned exactly as the operation produced them.
//
// The wait between attempts is a blocking sleep on the calling goroutine; no
// cancellation token is threaded through.
func (p *Policy) Do(fn func() error) error {
	start := p.now()
	attempts := 0
	var lastErr error

	for {
		// The timeout budget gates retries only: it is never evaluated
		// before the very first attempt.
		if p.timeout > 0 && attempts > 0 {
			if elapsed := p.now().Sub(start); elapsed >= p.timeout {
				return p.stop(&TimeoutError{
					Timeout:  p.timeout,
					Elapsed:  elapsed,
					Attempts: attempts,
					LastErr:  lastErr,
				}, lastErr)
			}
		}

		attempts++
		err := fn()
		if err == nil {
			if attempts > 1 && p.onSuccessfulRetry != nil {
				p.onSuccessfulRetry()
			}
			return nil
		}

		switch failure.Classify(err, p.included, p.excluded) {
		case failure.Excluded, failure.Unmatched:
			return err
		}
		lastErr = err

		if p.deadline > 0 {
			if elapsed := p.now().Sub(start); elapsed >= p.deadline {
				return p.stop(&DeadlineError{
					Deadline: p.deadline,
					Elapsed:  elapsed,
					Attempts: attempts,
					LastErr:  lastErr,
				}, lastErr)
			}
		}

		if p.maxRetries >= 0 && attempts > p.maxRetries {
			return p.stop(&MaxRetriesError{
				MaxRetries: p.maxRetries,
				Attempts:   attempts,
				LastErr:    lastErr,
			}, lastErr)
		}

		delay := p.strategy.Delay(attempts)
		p.logRetry(err, attempts, delay, start)

		<-p.after(delay)
		if p.onRetry != nil {
			p.onRetry()
		}
	}
}

// DoValue executes fn with retry and passes its result through unchanged on
// success.
func DoValue[T any](p *Policy, fn func() (T, error)) (T, error) {
	var out T
	err := p.Do(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// Wrap returns a function with the same contract as fn that runs it under the
// policy on every invocation.
func Wrap(p *Policy, fn func() error) func() error {
	return func() error {
		return p.Do(fn)
	}
}

// stop finishes the loop on a terminal condition: it logs the stop, fires the
// failure hook once and picks between the synthetic terminal error and the
// last underlying failure.
func (p *Policy) stop(terminal error, lastErr error) error {
	if p.log != nil {
		p.log.Error("giving up", slog.Any("error", terminal))
	}
	if p.onFailure != nil {
		p.onFailure()
	}
	if p.reraise && lastErr != nil {
		return lastErr
	}
	return terminal
}

// logRetry reports a failed retry-eligible attempt together with the
// remaining budgets and the upcoming delay.
func (p *Policy) logRetry(err error, attempts int, delay time.Duration, start time.Time) {
	if p.log == nil {
		return
	}

	attrs := []any{
		slog.Any("error", err),
		slog.Int("attempt", attempts),
		slog.Duration("next_delay", delay),
	}
	if p.maxRetries >= 0 {
		attrs = append(attrs, slog.Int("remaining_retries", p.maxRetries-(attempts-1)))
	}
	if budget := p.timeBudget(); budget > 0 {
		attrs = append(attrs, slog.Duration("remaining_time", budget-p.now().Sub(start)))
	}
	p.log.Warn("will retry", attrs...)
}

// timeBudget returns the tighter of the timeout and deadline budgets, or zero
// when neither is configured.
func (p *Policy) timeBudget() time.Duration {
	switch {
	case p.timeout > 0 && p.deadline > 0:
		return min(p.timeout, p.deadline)
	case p.timeout > 0:
		return p.timeout
	default:
		return p.deadline
	}
}
