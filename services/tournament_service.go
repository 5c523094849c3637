package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parsix/parsix-backend/golf"
	"github.com/parsix/parsix-backend/live"
	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/repositories"
)

const (
	minTournamentNameLength = 3
	maxTournamentNameLength = 100

	// joinCodeLength is the id prefix shown in the app as a shareable code.
	joinCodeLength = 8
)

// TournamentSummary is a tournament with its current standings attached.
type TournamentSummary struct {
	TournamentID      string            `json:"tournament_id"`
	Tournament        models.Tournament `json:"tournament"`
	Standings         []golf.Standing   `json:"standings"`
	UserParticipating bool              `json:"user_participating"`
}

// FinalResults is the frozen outcome of an ended tournament.
type FinalResults struct {
	TournamentID      string            `json:"tournament_id"`
	Tournament        models.Tournament `json:"tournament"`
	Winner            *golf.Standing    `json:"winner,omitempty"`
	FinalStandings    []golf.Standing   `json:"final_standings"`
	EndedAt           time.Time         `json:"ended_at"`
	TotalParticipants int               `json:"total_participants"`
}

type CreateTournamentInput struct {
	Name         string                      `json:"name"`
	StartDate    models.Date                 `json:"start_date"`
	DurationDays int                         `json:"duration_days"`
	Visibility   models.TournamentVisibility `json:"tournament_type"`
}

type TournamentService interface {
	Create(ctx context.Context, creatorID string, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, tournamentID, currentUserID string) (*TournamentSummary, error)
	ListForUser(ctx context.Context, userID string) ([]TournamentSummary, error)
	ListPublic(ctx context.Context, limit, offset int) ([]TournamentSummary, error)
	Search(ctx context.Context, query string, limit int) ([]TournamentSummary, error)
	// Join accepts a full tournament id or an 8-character join code.
	Join(ctx context.Context, idOrCode, userID string) (*models.Tournament, error)
	Leave(ctx context.Context, tournamentID, userID string) (*models.Tournament, error)
	Delete(ctx context.Context, tournamentID, userID string) error
	End(ctx context.Context, tournamentID, userID string) (*FinalResults, error)
	Results(ctx context.Context, tournamentID string) (*FinalResults, error)
	// AutoEndExpired ends every active tournament whose window has closed.
	// Run periodically by the scheduler.
	AutoEndExpired(ctx context.Context) ([]string, error)
	// NotifyScoreChange recomputes and broadcasts standings for every
	// active tournament of the user whose window covers the given date.
	NotifyScoreChange(ctx context.Context, userID string, date models.Date)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	scoreRepo      repositories.ScoreRepository
	userRepo       repositories.UserRepository
	hub            *live.Hub
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	scoreRepo repositories.ScoreRepository,
	userRepo repositories.UserRepository,
	hub *live.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		scoreRepo:      scoreRepo,
		userRepo:       userRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, creatorID string, input CreateTournamentInput) (*models.Tournament, error) {
	if len(input.Name) < minTournamentNameLength || len(input.Name) > maxTournamentNameLength {
		return nil, ErrTournamentNameLength
	}
	if input.StartDate.IsZero() {
		return nil, ErrTournamentStartRequired
	}
	if !models.ValidTournamentDuration(input.DurationDays) {
		return nil, ErrTournamentInvalidDuration
	}
	switch input.Visibility {
	case models.VisibilityPublic, models.VisibilityPrivate:
	case "":
		input.Visibility = models.VisibilityPrivate
	default:
		return nil, ErrTournamentInvalidVisibility
	}

	tournament := &models.Tournament{
		ID:           uuid.NewString(),
		Name:         input.Name,
		CreatorID:    creatorID,
		StartDate:    input.StartDate,
		DurationDays: input.DurationDays,
		Visibility:   input.Visibility,
		Status:       models.TournamentActive,
		IsActive:     true,
		Participants: []string{creatorID},
	}
	tournament.EndDate = tournament.ComputedEndDate()

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentCreatorInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID),
		slog.String("creator_id", creatorID),
		slog.Int("duration_days", tournament.DurationDays))
	return tournament, nil
}

func (s *tournamentService) Get(ctx context.Context, tournamentID, currentUserID string) (*TournamentSummary, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, tournament, currentUserID)
}

func (s *tournamentService) ListForUser(ctx context.Context, userID string) ([]TournamentSummary, error) {
	tournaments, err := s.tournamentRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for user: %w", err)
	}
	return s.summarizeAll(ctx, tournaments, userID)
}

func (s *tournamentService) ListPublic(ctx context.Context, limit, offset int) ([]TournamentSummary, error) {
	tournaments, err := s.tournamentRepo.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list public tournaments: %w", err)
	}
	return s.summarizeAll(ctx, tournaments, "")
}

func (s *tournamentService) Search(ctx context.Context, query string, limit int) ([]TournamentSummary, error) {
	tournaments, err := s.tournamentRepo.SearchPublic(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search tournaments: %w", err)
	}
	return s.summarizeAll(ctx, tournaments, "")
}

// validJoinCode reports whether s can be a tournament id prefix. Ids are
// lowercase UUIDs, so a code is hex digits only; anything else must never
// reach the prefix-match query, where LIKE metacharacters such as % and _
// would match unrelated tournaments.
func validJoinCode(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func (s *tournamentService) Join(ctx context.Context, idOrCode, userID string) (*models.Tournament, error) {
	tournamentID := idOrCode
	if len(idOrCode) <= joinCodeLength {
		if !validJoinCode(idOrCode) {
			return nil, ErrTournamentNotFound
		}
		resolved, err := s.tournamentRepo.ResolveJoinCode(ctx, idOrCode)
		if err != nil {
			return nil, mapTournamentRepoError(err)
		}
		tournamentID = resolved
	}

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentActive {
		return nil, ErrTournamentAlreadyEnded
	}

	if err := s.tournamentRepo.AddParticipant(ctx, tournamentID, userID); err != nil {
		return nil, mapTournamentRepoError(err)
	}

	s.logger.Info("tournament joined",
		slog.String("tournament_id", tournamentID),
		slog.String("user_id", userID))
	return s.getTournament(ctx, tournamentID)
}

func (s *tournamentService) Leave(ctx context.Context, tournamentID, userID string) (*models.Tournament, error) {
	if err := s.tournamentRepo.RemoveParticipant(ctx, tournamentID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("failed to leave tournament: %w", err)
	}

	s.logger.Info("tournament left",
		slog.String("tournament_id", tournamentID),
		slog.String("user_id", userID))
	return s.getTournament(ctx, tournamentID)
}

func (s *tournamentService) Delete(ctx context.Context, tournamentID, userID string) error {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.CreatorID != userID {
		return ErrForbiddenOperation
	}

	if err := s.tournamentRepo.SoftDelete(ctx, tournamentID); err != nil {
		return mapTournamentRepoError(err)
	}

	s.logger.Info("tournament deleted", slog.String("tournament_id", tournamentID))
	return nil
}

func (s *tournamentService) End(ctx context.Context, tournamentID, userID string) (*FinalResults, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.CreatorID != userID {
		return nil, ErrForbiddenOperation
	}
	if tournament.Status != models.TournamentActive {
		return nil, ErrTournamentAlreadyEnded
	}

	return s.endTournament(ctx, tournament)
}

func (s *tournamentService) Results(ctx context.Context, tournamentID string) (*FinalResults, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentActive {
		return nil, ErrTournamentStillActive
	}

	standings, err := s.computeStandings(ctx, tournament, models.Today())
	if err != nil {
		return nil, err
	}
	return s.finalResults(tournament, standings), nil
}

func (s *tournamentService) AutoEndExpired(ctx context.Context) ([]string, error) {
	expired, err := s.tournamentRepo.ListActiveEndedBefore(ctx, models.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired tournaments: %w", err)
	}

	ended := make([]string, 0, len(expired))
	for i := range expired {
		tournament, err := s.getTournament(ctx, expired[i].ID)
		if err != nil {
			s.logger.Error("auto-end: failed to load tournament",
				slog.String("tournament_id", expired[i].ID), slog.Any("error", err))
			continue
		}
		if _, err := s.endTournament(ctx, tournament); err != nil {
			s.logger.Error("auto-end: failed to end tournament",
				slog.String("tournament_id", tournament.ID), slog.Any("error", err))
			continue
		}
		ended = append(ended, tournament.ID)
	}
	return ended, nil
}

func (s *tournamentService) NotifyScoreChange(ctx context.Context, userID string, date models.Date) {
	tournaments, err := s.tournamentRepo.ListByParticipant(ctx, userID)
	if err != nil {
		s.logger.Error("standings broadcast: failed to list tournaments",
			slog.String("user_id", userID), slog.Any("error", err))
		return
	}

	for i := range tournaments {
		t := &tournaments[i]
		window := golf.DateRange{Start: t.StartDate, End: t.ComputedEndDate()}
		if t.Status != models.TournamentActive || !window.Contains(date) {
			continue
		}
		standings, err := s.computeStandings(ctx, t, models.Today())
		if err != nil {
			s.logger.Error("standings broadcast: failed to compute standings",
				slog.String("tournament_id", t.ID), slog.Any("error", err))
			continue
		}
		s.hub.BroadcastToRoom(t.ID, live.Message{
			Type:    live.MessageStandingsUpdated,
			Payload: standings,
		})
	}
}

func (s *tournamentService) endTournament(ctx context.Context, tournament *models.Tournament) (*FinalResults, error) {
	standings, err := s.computeStandings(ctx, tournament, models.Today())
	if err != nil {
		return nil, err
	}

	var winnerID *string
	if len(standings) > 0 {
		winnerID = &standings[0].UserID
	}

	if err := s.tournamentRepo.MarkEnded(ctx, tournament.ID, winnerID); err != nil {
		return nil, mapTournamentRepoError(err)
	}

	now := time.Now()
	tournament.Status = models.TournamentEnded
	tournament.EndedAt = &now
	tournament.WinnerUserID = winnerID

	results := s.finalResults(tournament, standings)
	s.hub.BroadcastToRoom(tournament.ID, live.Message{
		Type:    live.MessageTournamentEnded,
		Payload: results,
	})

	s.logger.Info("tournament ended", slog.String("tournament_id", tournament.ID))
	return results, nil
}

func (s *tournamentService) finalResults(tournament *models.Tournament, standings []golf.Standing) *FinalResults {
	results := &FinalResults{
		TournamentID:      tournament.ID,
		Tournament:        *tournament,
		FinalStandings:    standings,
		TotalParticipants: len(tournament.Participants),
	}
	if tournament.EndedAt != nil {
		results.EndedAt = *tournament.EndedAt
	}
	if len(standings) > 0 {
		winner := standings[0]
		results.Winner = &winner
	}
	return results
}

func (s *tournamentService) summarize(ctx context.Context, tournament *models.Tournament, currentUserID string) (*TournamentSummary, error) {
	standings, err := s.computeStandings(ctx, tournament, models.Today())
	if err != nil {
		return nil, err
	}

	participating := false
	for i := range standings {
		if standings[i].UserID == currentUserID {
			standings[i].IsCurrentUser = true
			participating = true
		}
	}

	return &TournamentSummary{
		TournamentID:      tournament.ID,
		Tournament:        *tournament,
		Standings:         standings,
		UserParticipating: participating,
	}, nil
}

func (s *tournamentService) summarizeAll(ctx context.Context, tournaments []models.Tournament, currentUserID string) ([]TournamentSummary, error) {
	summaries := make([]TournamentSummary, 0, len(tournaments))
	for i := range tournaments {
		tournament, err := s.getTournament(ctx, tournaments[i].ID)
		if err != nil {
			s.logger.Error("failed to load tournament for summary",
				slog.String("tournament_id", tournaments[i].ID), slog.Any("error", err))
			continue
		}
		summary, err := s.summarize(ctx, tournament, currentUserID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// computeStandings loads participants and their scores over the tournament
// window and hands everything to the pure engine.
func (s *tournamentService) computeStandings(ctx context.Context, tournament *models.Tournament, asOf models.Date) ([]golf.Standing, error) {
	participants, err := s.tournamentRepo.ListParticipants(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}

	scores, err := s.scoreRepo.ListByUsersInRange(ctx, ids, tournament.StartDate, tournament.ComputedEndDate())
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament scores: %w", err)
	}

	return golf.ComputeStandings(tournament, participants, scores, asOf), nil
}

func (s *tournamentService) getTournament(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	// The stored end date is a query convenience; the derived value is the
	// ground truth.
	tournament.EndDate = tournament.ComputedEndDate()
	return tournament, nil
}

func mapTournamentRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentJoinCodeAmbiguous):
		return ErrJoinCodeAmbiguous
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrNotParticipant
	default:
		return err
	}
}
