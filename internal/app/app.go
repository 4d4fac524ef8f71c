package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"retrykit/internal/adapter/httpapi"
	"retrykit/internal/adapter/scheduler"
	"retrykit/internal/config"
	"retrykit/internal/platform/journal"
	"retrykit/internal/platform/logger"
	"retrykit/internal/probe"
	"retrykit/pkg/backoff"
	"retrykit/pkg/retry"
	"retrykit/pkg/retryable"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "retryd",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.log.Info("starting")
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := journal.Open(ctx, a.cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	policy, err := buildPolicy(a.cfg, a.log)
	if err != nil {
		return err
	}

	prober := probe.New(policy, store, a.log)

	sched := scheduler.New(a.log)
	for _, target := range a.cfg.Probe.Targets {
		if _, err := sched.AddJob(a.cfg.Probe.Schedule, target, prober.Job(target)); err != nil {
			return fmt.Errorf("schedule %s: %w", target, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	api := httpapi.New(store, a.log)
	srv := &http.Server{Addr: a.cfg.HTTP.Addr, Handler: api.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildPolicy translates the retry section of the configuration into a
// retry.Policy shared by all probes.
func buildPolicy(cfg config.Config, log *slog.Logger) (*retry.Policy, error) {
	var strategy backoff.Strategy
	switch cfg.Retry.Backoff {
	case "fixed":
		strategy = backoff.Fixed{Base: cfg.Retry.Base}
	case "linear":
		step := cfg.Retry.Step
		if step == 0 {
			step = cfg.Retry.Base
		}
		strategy = backoff.Linear{Base: cfg.Retry.Base, Step: step, Max: cfg.Retry.Max}
	case "exponential":
		strategy = backoff.Exponential{Base: cfg.Retry.Base, Max: cfg.Retry.Max}
	case "random":
		strategy = backoff.RandomUniform{Min: cfg.Retry.MinDelay, Max: cfg.Retry.MaxDelay}
	default:
		return nil, fmt.Errorf("unknown backoff strategy %q", cfg.Retry.Backoff)
	}

	opts := []retry.Option{
		retry.WithBackoff(strategy),
		retry.WithLogger(log),
		retry.RetryOnMatch(retryable.Network()),
		retry.RetryOn(probe.ErrTransientStatus),
	}
	if cfg.Retry.MaxRetries >= 0 {
		opts = append(opts, retry.WithMaxRetries(cfg.Retry.MaxRetries))
	}
	if cfg.Retry.Timeout > 0 {
		opts = append(opts, retry.WithTimeout(cfg.Retry.Timeout))
	}
	if cfg.Retry.Deadline > 0 {
		opts = append(opts, retry.WithDeadline(cfg.Retry.Deadline))
	}
	return retry.New(opts...)
}
