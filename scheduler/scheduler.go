package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/services"
)

type Config struct {
	Enabled bool
	// PenaltyCronSpec fires once per day after the puzzle rolls over, e.g.
	// "5 0 * * *". The job scores the day that just ended.
	PenaltyCronSpec string
	// AutoEndCronSpec closes tournaments whose window has passed.
	AutoEndCronSpec string
}

type Scheduler struct {
	c      *cron.Cron
	config Config
	logger *slog.Logger
}

func New(cfg Config, penalties services.PenaltyService, tournaments services.TournamentService, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		c:      cron.New(), // standard 5-field spec, runs in server local time
		config: cfg,
		logger: logger,
	}

	_, err := s.c.AddFunc(cfg.PenaltyCronSpec, func() {
		date := models.Today().AddDays(-1)
		applied, err := penalties.ApplyDailyPenalties(context.Background(), date)
		if err != nil {
			logger.Error("penalty job failed",
				slog.String("puzzle_date", date.String()), slog.Any("error", err))
			return
		}
		logger.Info("penalty job finished",
			slog.String("puzzle_date", date.String()), slog.Int("applied", applied))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid penalty cron spec %q: %w", cfg.PenaltyCronSpec, err)
	}

	_, err = s.c.AddFunc(cfg.AutoEndCronSpec, func() {
		ended, err := tournaments.AutoEndExpired(context.Background())
		if err != nil {
			logger.Error("auto-end job failed", slog.Any("error", err))
			return
		}
		if len(ended) > 0 {
			logger.Info("auto-end job finished", slog.Int("ended", len(ended)))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid auto-end cron spec %q: %w", cfg.AutoEndCronSpec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		slog.String("penalty_cron", s.config.PenaltyCronSpec),
		slog.String("auto_end_cron", s.config.AutoEndCronSpec))
	s.c.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() context.Context {
	return s.c.Stop()
}
