// Package scheduler runs the periodic exchange rate refresh.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fundapp/internal/services/exchange"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single refresh run.
const DefaultJobTimeout = 2 * time.Minute

// Refresher re-fetches every stored base currency.
type Refresher interface {
	RefreshAll(ctx context.Context) (exchange.RefreshReport, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	schedule  string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that refreshes rates on schedule, a
// standard five-field cron expression evaluated in UTC.
func NewScheduler(refresher Refresher, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:      c,
		refresher: refresher,
		schedule:  schedule,
		timeout:   DefaultJobTimeout,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RefreshRates); err != nil {
		return fmt.Errorf("failed to schedule rate refresh job %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled rate refresh job", "schedule", s.schedule)

	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler. The returned context is done
// once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RefreshRates runs one full refresh. Failures for individual currencies
// keep their previous rows and are only logged.
func (s *Scheduler) RefreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("rate refresh started")
	report, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Error("rate refresh failed", "error", err)
		return
	}

	for currency, reason := range report.Failed {
		s.logger.Warn("rate refresh skipped currency", "currency", currency, "reason", reason)
	}
	s.logger.Info("rate refresh finished",
		"refreshed", len(report.Refreshed),
		"failed", len(report.Failed),
		"duration", report.Duration)
}
