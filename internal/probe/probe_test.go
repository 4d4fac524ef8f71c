package probe_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrykit/internal/platform/journal"
	"retrykit/internal/probe"
	"retrykit/pkg/backoff"
	"retrykit/pkg/retry"
)

func testPolicy(t *testing.T, maxRetries int) *retry.Policy {
	t.Helper()
	policy, err := retry.New(
		retry.WithMaxRetries(maxRetries),
		retry.WithBackoff(backoff.Fixed{}),
		retry.RetryOn(probe.ErrTransientStatus),
	)
	require.NoError(t, err)
	return policy
}

func newProber(t *testing.T, policy *retry.Policy, store *journal.Store) *probe.Prober {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	return probe.New(policy, store, log).WithHTTPClient(&http.Client{})
}

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunRecoversAfterTransientFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := openStore(t)
	p := newProber(t, testPolicy(t, 5), store)

	require.NoError(t, p.Run(context.Background(), srv.URL))
	assert.Equal(t, int64(3), calls.Load())

	out, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, journal.StatusRecovered, out[0].Status)
	assert.Equal(t, 3, out[0].Attempts)
	assert.Empty(t, out[0].Error)
}

func TestRunFirstAttemptSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := openStore(t)
	p := newProber(t, testPolicy(t, 3), store)

	require.NoError(t, p.Run(context.Background(), srv.URL))

	out, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, journal.StatusSuccess, out[0].Status)
	assert.Equal(t, 1, out[0].Attempts)
}

func TestRunExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := openStore(t)
	p := newProber(t, testPolicy(t, 2), store)

	err := p.Run(context.Background(), srv.URL)
	require.Error(t, err)

	var mre *retry.MaxRetriesError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, int64(3), calls.Load())

	out, rerr := store.Recent(context.Background(), 1)
	require.NoError(t, rerr)
	require.Len(t, out, 1)
	assert.Equal(t, journal.StatusMaxRetries, out[0].Status)
	assert.Equal(t, 3, out[0].Attempts)
	assert.NotEmpty(t, out[0].Error)
}

func TestRunNonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := openStore(t)
	p := newProber(t, testPolicy(t, 5), store)

	err := p.Run(context.Background(), srv.URL)
	require.ErrorIs(t, err, probe.ErrStatus)
	assert.Equal(t, int64(1), calls.Load())

	out, rerr := store.Recent(context.Background(), 1)
	require.NoError(t, rerr)
	require.Len(t, out, 1)
	assert.Equal(t, journal.StatusError, out[0].Status)
	assert.Equal(t, 1, out[0].Attempts)
}

func TestRunWithoutStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := newProber(t, testPolicy(t, 1), nil)
	require.NoError(t, p.Run(context.Background(), srv.URL))
}
