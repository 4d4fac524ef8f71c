// Package retry wraps an arbitrary operation with policy-driven re-execution
// on failure.
//
// A Policy bundles every decision about retrying: which failures are eligible,
// how many retries are allowed, how much wall-clock time the whole sequence
// may spend, how the delays between attempts grow, and which hooks fire along
// the way. The call site stays a single line.
//
// Basic usage:
//
//	p, err := retry.New(retry.WithMaxRetries(3))
//	if err != nil {
//	    return err
//	}
//	err = p.Do(func() error {
//	    return someFlakyOperation()
//	})
//
// Backoff and failure selection:
//
//	p, err := retry.New(
//	    retry.WithMaxRetries(5),
//	    retry.WithBackoff(backoff.Exponential{Base: 100 * time.Millisecond, Max: 10 * time.Second}),
//	    retry.RetryOnMatch(retryable.Network()),
//	    retry.Exclude(errAuth),
//	)
//
// Two independent wall-clock budgets are available. The timeout is checked
// before starting any attempt beyond the first: once the elapsed time reaches
// it, no further attempt begins. The deadline is checked after each failed
// attempt: an attempt already running is never preempted, so a deadline
// shorter than the first attempt still lets it execute exactly once.
//
// Hooks are zero-argument callbacks; bind payloads with pkg/callback:
//
//	p, err := retry.New(
//	    retry.WithMaxRetries(3),
//	    retry.OnFailure(callback.Bind(alert, "primary sync failed")),
//	    retry.OnSuccessfulRetry(callback.Bind(metrics.Inc, "recovered")),
//	)
//
// On a terminal stop Do returns *MaxRetriesError, *TimeoutError or
// *DeadlineError, each unwrapping to the last failure. With Reraise the last
// failure itself is returned instead. Failures outside the included set, or
// inside the excluded set, surface immediately and unchanged.
//
// Results pass through with DoValue:
//
//	body, err := retry.DoValue(p, func() ([]byte, error) {
//	    return fetch(url)
//	})
//
// Hook panics are not recovered; a panicking callback terminates the loop.
package retry
