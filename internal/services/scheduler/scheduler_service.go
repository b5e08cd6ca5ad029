// Package scheduler triggers the daily pipeline run on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// Service wraps a cron scheduler around the pipeline run function.
// Overlap protection lives in the run function itself, so manual HTTP
// triggers and scheduled runs share the same guard.
type Service struct {
	cron    *cron.Cron
	run     RunFunc
	logger  arbor.ILogger
	entryID cron.EntryID
	running bool
}

// NewService creates a scheduler for the given run function
func NewService(run RunFunc, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(cron.WithSeconds()),
		run:    run,
		logger: logger,
	}
}

// Start registers the cron entry and starts the scheduler.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		return fmt.Errorf("cron expression is required")
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Msg("Daily pipeline schedule enabled")

	return nil
}

func (s *Service) runScheduled() {
	started := time.Now()
	s.logger.Info().Msg("Scheduled pipeline run starting")

	if err := s.run(context.Background()); err != nil {
		s.logger.Error().
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("Scheduled pipeline run failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(started)).
		Msg("Scheduled pipeline run finished")
}

// Stop stops the scheduler; an in-flight run is not interrupted.
func (s *Service) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}
