// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is a schedulable unit of work.
type JobFunc func(ctx context.Context) error

// JobID identifies a scheduled job.
type JobID = cron.EntryID

// cronLogger adapts cron's logger interface to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := append([]slog.Attr{slog.Any("error", err)}, pairs(keysAndValues)...)
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func pairs(keysAndValues []interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			attrs = append(attrs, slog.Any(key, keysAndValues[i+1]))
		}
	}
	return attrs
}

// Scheduler manages periodic jobs.
type Scheduler struct {
	cron     *cron.Cron
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a Scheduler. Jobs run with a context canceled on Stop.
func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger}),
			cron.WithChain(cron.Recover(cronLogger{logger: logger})),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob schedules job under the given cron spec. A run is skipped when the
// previous one is still going.
func (s *Scheduler) AddJob(spec, name string, job JobFunc) (JobID, error) {
	var running sync.Mutex
	return s.cron.AddFunc(spec, func() {
		if !running.TryLock() {
			s.logger.Debug("job still running, skipping", slog.String("job", name))
			return
		}
		defer running.Unlock()

		s.wg.Add(1)
		defer s.wg.Done()

		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("job failed",
				slog.String("job", name),
				slog.Duration("took", time.Since(start)),
				slog.Any("error", err),
			)
			return
		}
		s.logger.Debug("job done",
			slog.String("job", name),
			slog.Duration("took", time.Since(start)),
		)
	})
}

// Start launches the scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels the job context, stops scheduling new runs and waits for
// in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.cron.Stop().Done()
		s.wg.Wait()
	})
}
