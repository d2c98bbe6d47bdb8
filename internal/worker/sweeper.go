// Package worker runs background maintenance jobs.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"glucotrack/internal/metrics"

	"github.com/robfig/cron/v3"
)

// ExpiredSessionSweeper removes sessions that are past their expiry.
type ExpiredSessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SessionSweeper deletes expired sessions on a cron schedule.
type SessionSweeper struct {
	sweeper ExpiredSessionSweeper
	metrics metrics.Recorder
	logger  *slog.Logger
	timeout time.Duration

	cron *cron.Cron
}

// NewSessionSweeper schedules sweeps with a standard cron expression or a
// descriptor such as "@hourly" or "@every 30m".
func NewSessionSweeper(sweeper ExpiredSessionSweeper, rec metrics.Recorder, logger *slog.Logger, schedule string) (*SessionSweeper, error) {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionSweeper{
		sweeper: sweeper,
		metrics: rec,
		logger:  logger,
		timeout: 30 * time.Second,
		cron:    cron.New(),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *SessionSweeper) Start() {
	s.cron.Start()
	s.logger.Info("session sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish or for ctx
// to expire.
func (s *SessionSweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("session sweeper stopped")
}

// RunOnce performs a single sweep and returns the number of sessions removed.
func (s *SessionSweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.RecordSessionsSwept(n)
	if n > 0 {
		s.logger.Info("expired sessions swept", slog.Int64("count", n))
	}
	return n, nil
}

func (s *SessionSweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
	}
}
