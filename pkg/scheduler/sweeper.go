package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SweepFunc evicts expired waits and returns how many were evicted.
type SweepFunc func(ctx context.Context, now time.Time) (int, error)

// Sweeper runs a SweepFunc on a cron schedule ("@every 1m", "*/5 * * * *").
type Sweeper struct {
	schedule string
	sweep    SweepFunc
	logger   *slog.Logger
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweeper(schedule string, sweep SweepFunc, logger *slog.Logger) (*Sweeper, error) {
	_, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule '%s': %w", schedule, err)
	}

	return &Sweeper{
		schedule: schedule,
		sweep:    sweep,
		logger:   logger.With("module", "sweeper"),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start registers the sweep job and starts the cron scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	logger := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(s.ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Sweeper started", "schedule", s.schedule, "entry_id", entryID)

	return nil
}

// RunOnce performs a single sweep immediately.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	evicted, err := s.sweep(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Pending wait sweep failed", "error", err)

		return evicted, err
	}

	if evicted > 0 {
		s.logger.InfoContext(ctx, "Evicted expired pending waits", "count", evicted)
	}

	return evicted, nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("Sweeper stopped")
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
