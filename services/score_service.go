package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/parsix/parsix-backend/golf"
	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/repositories"
)

// SubmitScoreInput carries a day's result. Either ShareText is set (the raw
// Wordle share block, parsed server-side) or Status and GuessesUsed are set
// directly by a client that did its own parsing.
type SubmitScoreInput struct {
	PuzzleDate  models.Date        `json:"puzzle_date"`
	ShareText   string             `json:"share_text,omitempty"`
	Status      models.ScoreStatus `json:"status,omitempty"`
	GuessesUsed *int               `json:"guesses_used,omitempty"`
	SourceText  *string            `json:"source_text,omitempty"`
}

type ScoreService interface {
	Submit(ctx context.Context, userID string, input SubmitScoreInput) (*models.Score, error)
	GetUserScores(ctx context.Context, userID string, window golf.DateRange) ([]models.Score, error)
	// GetPlayerScores returns another player's scores, allowed only when the
	// viewer shares a tournament with the player (or is the player).
	GetPlayerScores(ctx context.Context, viewerID, playerID string, window golf.DateRange) ([]models.Score, error)
	PlayerStats(ctx context.Context, viewerID, playerID string, window golf.DateRange) (*golf.PlayerStats, error)
	Leaderboard(ctx context.Context, window golf.DateRange, limit int) ([]golf.LeaderboardEntry, error)
}

type scoreService struct {
	scoreRepo      repositories.ScoreRepository
	tournamentRepo repositories.TournamentRepository
	userRepo       repositories.UserRepository
	tournaments    TournamentService
	logger         *slog.Logger
}

func NewScoreService(
	scoreRepo repositories.ScoreRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	tournaments TournamentService,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		scoreRepo:      scoreRepo,
		tournamentRepo: tournamentRepo,
		userRepo:       userRepo,
		tournaments:    tournaments,
		logger:         logger,
	}
}

func (s *scoreService) Submit(ctx context.Context, userID string, input SubmitScoreInput) (*models.Score, error) {
	if input.PuzzleDate.IsZero() {
		return nil, ErrScoreDateRequired
	}
	if input.PuzzleDate.After(models.Today()) {
		return nil, ErrScoreDateInFuture
	}

	status := input.Status
	guessesUsed := input.GuessesUsed
	sourceText := input.SourceText

	if text := strings.TrimSpace(input.ShareText); text != "" {
		raw, err := golf.Parse(text)
		if err != nil {
			return nil, err
		}
		if raw.Solved {
			status = models.StatusSolved
			used := raw.GuessesUsed
			guessesUsed = &used
		} else {
			status = models.StatusDNF
			guessesUsed = nil
		}
		sourceText = &text
	} else {
		switch status {
		case models.StatusSolved:
			if guessesUsed == nil {
				return nil, ErrScoreInvalidGuesses
			}
			if *guessesUsed < 1 || *guessesUsed > golf.MaxGuesses {
				return nil, ErrScoreInvalidGuesses
			}
		case models.StatusDNF:
			if guessesUsed != nil {
				return nil, ErrScoreGuessesForbidden
			}
		default:
			return nil, ErrScoreOutcomeRequired
		}
	}

	guesses := 0
	if guessesUsed != nil {
		guesses = *guessesUsed
	}
	value := golf.Normalize(status, guesses, false)

	score := &models.Score{
		ID:          uuid.NewString(),
		UserID:      userID,
		PuzzleDate:  input.PuzzleDate,
		Status:      status,
		Type:        models.TypeRegular,
		GuessesUsed: guessesUsed,
		GolfScore:   value.GolfScore,
		SourceText:  sourceText,
	}

	if err := s.scoreRepo.Upsert(ctx, score); err != nil {
		if errors.Is(err, repositories.ErrScoreUserInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save score: %w", err)
	}

	s.logger.Info("score submitted",
		slog.String("user_id", userID),
		slog.String("puzzle_date", score.PuzzleDate.String()),
		slog.Int("golf_score", score.GolfScore))

	s.tournaments.NotifyScoreChange(ctx, userID, score.PuzzleDate)
	return score, nil
}

func (s *scoreService) GetUserScores(ctx context.Context, userID string, window golf.DateRange) ([]models.Score, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByUserInRange(ctx, userID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

func (s *scoreService) GetPlayerScores(ctx context.Context, viewerID, playerID string, window golf.DateRange) ([]models.Score, error) {
	if err := s.authorizePlayerView(ctx, viewerID, playerID); err != nil {
		return nil, err
	}
	return s.GetUserScores(ctx, playerID, window)
}

func (s *scoreService) PlayerStats(ctx context.Context, viewerID, playerID string, window golf.DateRange) (*golf.PlayerStats, error) {
	scores, err := s.GetPlayerScores(ctx, viewerID, playerID, window)
	if err != nil {
		return nil, err
	}
	stats := golf.Aggregate(scores, window)
	return &stats, nil
}

func (s *scoreService) Leaderboard(ctx context.Context, window golf.DateRange, limit int) ([]golf.LeaderboardEntry, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	scoresByUser, err := s.scoreRepo.ListAllInRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard scores: %w", err)
	}

	ids := make([]string, 0, len(scoresByUser))
	for id := range scoresByUser {
		ids = append(ids, id)
	}
	handles, err := s.userRepo.GetHandles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve handles: %w", err)
	}

	return golf.Leaderboard(scoresByUser, handles, window, limit), nil
}

func (s *scoreService) authorizePlayerView(ctx context.Context, viewerID, playerID string) error {
	if viewerID == playerID {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load player: %w", err)
	}
	shared, err := s.tournamentRepo.ShareTournament(ctx, viewerID, playerID)
	if err != nil {
		return fmt.Errorf("failed to check shared tournaments: %w", err)
	}
	if !shared {
		return ErrForbiddenOperation
	}
	return nil
}

func validateWindow(window golf.DateRange) error {
	if window.Start.IsZero() || window.End.IsZero() {
		return ErrDateRangeInvalid
	}
	if window.End.Before(window.Start) {
		return ErrDateRangeInvalid
	}
	return nil
}
