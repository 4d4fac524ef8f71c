package scheduler_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retrykit/internal/adapter/scheduler"
)

func TestJobRunsOnSchedule(t *testing.T) {
	s := scheduler.New(slog.New(slog.DiscardHandler))

	var runs atomic.Int64
	_, err := s.AddJob("@every 50ms", "tick", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int64(2))
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	s := scheduler.New(slog.New(slog.DiscardHandler))

	var runs atomic.Int64
	_, err := s.AddJob("@every 20ms", "slow", func(ctx context.Context) error {
		runs.Add(1)
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	// Ten ticks fit in the window but overlapping runs are dropped.
	assert.LessOrEqual(t, runs.Load(), int64(3))
	assert.GreaterOrEqual(t, runs.Load(), int64(1))
}

func TestStopCancelsJobContext(t *testing.T) {
	s := scheduler.New(slog.New(slog.DiscardHandler))

	canceled := make(chan struct{})
	_, err := s.AddJob("@every 20ms", "waiter", func(ctx context.Context) error {
		<-ctx.Done()
		close(canceled)
		return ctx.Err()
	})
	require.NoError(t, err)

	s.Start()
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not canceled on Stop")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := scheduler.New(slog.New(slog.DiscardHandler))

	_, err := s.AddJob("not a cron spec", "bad", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	s := scheduler.New(slog.New(slog.DiscardHandler))
	s.Start()
	s.Stop()
	s.Stop()
}
