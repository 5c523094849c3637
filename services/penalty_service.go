package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parsix/parsix-backend/golf"
	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/repositories"
)

// activityWindowDays bounds who counts as an active player. Users with no
// score in the trailing week stop accruing penalties until they post again.
const activityWindowDays = 7

const penaltySourceText = "Busy Bunker - Missed Day"

type PenaltyService interface {
	// ApplyDailyPenalties writes a penalty record for every active user who
	// has no score for the given date. Returns the number applied. A real
	// submission is never replaced; re-running the job for the same date is
	// a no-op.
	ApplyDailyPenalties(ctx context.Context, date models.Date) (int, error)
}

type penaltyService struct {
	scoreRepo repositories.ScoreRepository
	logger    *slog.Logger
}

func NewPenaltyService(scoreRepo repositories.ScoreRepository, logger *slog.Logger) PenaltyService {
	return &penaltyService{scoreRepo: scoreRepo, logger: logger}
}

func (s *penaltyService) ApplyDailyPenalties(ctx context.Context, date models.Date) (int, error) {
	since := date.AddDays(-activityWindowDays)
	userIDs, err := s.scoreRepo.ListActiveUserIDs(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list active users: %w", err)
	}

	sourceText := penaltySourceText
	applied := 0
	for _, userID := range userIDs {
		score := &models.Score{
			ID:         uuid.NewString(),
			UserID:     userID,
			PuzzleDate: date,
			Status:     models.StatusDNF,
			Type:       models.TypePenalty,
			GolfScore:  golf.DNFScore,
			SourceText: &sourceText,
		}
		ok, err := s.scoreRepo.InsertIfAbsent(ctx, score)
		if err != nil {
			return applied, fmt.Errorf("failed to apply penalty for user %s: %w", userID, err)
		}
		if ok {
			applied++
		}
	}

	s.logger.Info("daily penalties applied",
		slog.String("puzzle_date", date.String()),
		slog.Int("active_users", len(userIDs)),
		slog.Int("applied", applied))
	return applied, nil
}
