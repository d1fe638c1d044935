package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultCleanupSchedule is used when no schedule is configured.
const DefaultCleanupSchedule = "@every 5m"

// Sweeper periodically removes expired sessions from both tiers.
type Sweeper struct {
	manager  *Manager
	schedule string
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper driven by a cron schedule expression.
func NewSweeper(manager *Manager, schedule string, logger zerolog.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}

	return &Sweeper{
		manager:  manager,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the periodic sweep.
func (s *Sweeper) Start() error {
	if s.cron != nil {
		return fmt.Errorf("sweeper is already running")
	}

	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c

	s.logger.Info().
		Str("schedule", s.schedule).
		Msg("Session sweeper started")
	return nil
}

// Stop cancels the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() error {
	if s.cron == nil {
		return fmt.Errorf("sweeper is not running")
	}

	<-s.cron.Stop().Done()
	s.cron = nil

	s.logger.Info().Msg("Session sweeper stopped")
	return nil
}

// RunNow performs a single sweep, returning how many sessions were removed.
func (s *Sweeper) RunNow(ctx context.Context) int {
	logger := s.logger.With().Str("runID", uuid.NewString()).Logger()

	cleaned, err := s.manager.CleanupExpired(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Session sweep failed")
		return cleaned
	}

	logger.Debug().Int("cleaned", cleaned).Msg("Session sweep finished")
	return cleaned
}
