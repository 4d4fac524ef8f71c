// Package probe runs HTTP health probes through a retry policy and records
// every finished run in the journal.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"retrykit/internal/platform/journal"
	"retrykit/pkg/retry"
)

// Sentinel errors for HTTP status classification. Transient statuses are
// retry-eligible; anything else surfaces immediately.
var (
	// ErrTransientStatus marks 408, 429 and 5xx responses.
	ErrTransientStatus = errors.New("transient http status")
	// ErrStatus marks any other non-2xx response.
	ErrStatus = errors.New("unexpected http status")
)

// Prober probes targets over HTTP under a retry policy.
type Prober struct {
	client  *http.Client
	policy  *retry.Policy
	store   *journal.Store
	log     *slog.Logger
	timeNow func() time.Time
}

// New creates a Prober. The store may be nil to disable journaling.
func New(policy *retry.Policy, store *journal.Store, log *slog.Logger) *Prober {
	return &Prober{
		client:  &http.Client{Timeout: 15 * time.Second},
		policy:  policy,
		store:   store,
		log:     log,
		timeNow: time.Now,
	}
}

// WithHTTPClient replaces the HTTP client. For tests.
func (p *Prober) WithHTTPClient(c *http.Client) *Prober {
	p.client = c
	return p
}

// Run probes target under the retry policy, records the outcome and returns
// the terminal error, if any.
func (p *Prober) Run(ctx context.Context, target string) error {
	started := p.timeNow()
	attempts := 0

	err := p.policy.Do(func() error {
		attempts++
		return p.check(ctx, target)
	})
	elapsed := p.timeNow().Sub(started)

	status := classify(err, attempts)
	p.log.Info("probe finished",
		slog.String("target", target),
		slog.String("outcome", status),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", elapsed),
	)

	if p.store != nil {
		o := journal.Outcome{
			Job:       target,
			StartedAt: started,
			Attempts:  attempts,
			Elapsed:   elapsed,
			Status:    status,
		}
		if err != nil {
			o.Error = err.Error()
		}
		if rerr := p.store.Record(ctx, o); rerr != nil {
			p.log.Error("journal write failed", slog.Any("error", rerr))
		}
	}
	return err
}

// Job adapts a target probe into a scheduler job.
func (p *Prober) Job(target string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return p.Run(ctx, target)
	}
}

// check performs a single GET against target.
func (p *Prober) check(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return fmt.Errorf("%w: %d from %s", ErrTransientStatus, resp.StatusCode, target)
	default:
		return fmt.Errorf("%w: %d from %s", ErrStatus, resp.StatusCode, target)
	}
}

// classify maps a run's terminal error to a journal status.
func classify(err error, attempts int) string {
	if err == nil {
		if attempts > 1 {
			return journal.StatusRecovered
		}
		return journal.StatusSuccess
	}

	var (
		mre *retry.MaxRetriesError
		te  *retry.TimeoutError
		de  *retry.DeadlineError
	)
	switch {
	case errors.As(err, &mre):
		return journal.StatusMaxRetries
	case errors.As(err, &te):
		return journal.StatusTimeout
	case errors.As(err, &de):
		return journal.StatusDeadline
	default:
		return journal.StatusError
	}
}

// drainAndClose drains up to 512KB from body and closes it.
func drainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}
