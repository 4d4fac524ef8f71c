package retry

import (
	"log/slog"
	"time"

	"retrykit/pkg/backoff"
	"retrykit/pkg/callback"
	"retrykit/pkg/failure"
)

// config collects policy settings before validation.
type config struct {
	included failure.Set
	excluded failure.Set

	maxRetries    int
	maxRetriesSet bool
	timeout       time.Duration
	timeoutSet    bool
	deadline      time.Duration
	deadlineSet   bool

	strategy backoff.Strategy
	reraise  bool
	log      *slog.Logger

	onRetry           callback.Callback
	onSuccessfulRetry callback.Callback
	onFailure         callback.Callback

	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// Option configures a Policy.
type Option func(*config)

// RetryOn adds sentinel errors to the included set. A failure whose chain
// contains any of them (errors.Is) is retry-eligible. When no included
// matchers are configured, every failure is retry-eligible.
func RetryOn(targets ...error) Option {
	return func(c *config) {
		c.included = append(c.included, failure.Is(targets...))
	}
}

// RetryOnMatch adds matchers to the included set.
func RetryOnMatch(ms ...failure.Matcher) Option {
	return func(c *config) {
		c.included = append(c.included, ms...)
	}
}

// Exclude adds sentinel errors to the excluded set. A failure whose chain
// contains any of them surfaces immediately, even if the included set would
// match it.
func Exclude(targets ...error) Option {
	return func(c *config) {
		c.excluded = append(c.excluded, failure.Is(targets...))
	}
}

// ExcludeMatch adds matchers to the excluded set.
func ExcludeMatch(ms ...failure.Matcher) Option {
	return func(c *config) {
		c.excluded = append(c.excluded, ms...)
	}
}

// WithMaxRetries limits the number of retries, not counting the first
// attempt: the operation runs at most n+1 times. Zero permits exactly one
// attempt. Unset means unbounded.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
		c.maxRetriesSet = true
	}
}

// WithTimeout sets the cumulative time budget checked before starting any
// attempt beyond the first. Must be positive.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
		c.timeoutSet = true
	}
}

// WithDeadline sets the cumulative time budget checked after each failed
// attempt. Must be positive.
func WithDeadline(d time.Duration) Option {
	return func(c *config) {
		c.deadline = d
		c.deadlineSet = true
	}
}

// WithBackoff sets the delay strategy. The default is a zero-delay fixed
// strategy.
func WithBackoff(s backoff.Strategy) Option {
	return func(c *config) {
		c.strategy = s
	}
}

// Reraise makes terminal stops surface the last underlying failure instead of
// a synthetic exhaustion error. Excluded and unmatched failures always
// surface as themselves regardless of this setting.
func Reraise() Option {
	return func(c *config) {
		c.reraise = true
	}
}

// WithLogger sets the logger used to report failed attempts and terminal
// stops. A nil logger disables logging entirely.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// OnRetry sets a hook invoked between a failed attempt and the next one,
// after the backoff delay has elapsed.
func OnRetry(cb callback.Callback) Option {
	return func(c *config) {
		c.onRetry = cb
	}
}

// OnSuccessfulRetry sets a hook invoked exactly once when the operation
// eventually succeeds after having failed at least once. It never fires on a
// first-attempt success.
func OnSuccessfulRetry(cb callback.Callback) Option {
	return func(c *config) {
		c.onSuccessfulRetry = cb
	}
}

// OnFailure sets a hook invoked exactly once when the loop stops due to
// exhausted retries, timeout or deadline.
func OnFailure(cb callback.Callback) Option {
	return func(c *config) {
		c.onFailure = cb
	}
}

// WithNowFunc overrides the time source. For tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithAfterFunc overrides the timer used to wait between attempts. For tests.
func WithAfterFunc(after func(d time.Duration) <-chan time.Time) Option {
	return func(c *config) {
		c.after = after
	}
}
