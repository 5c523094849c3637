package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if strings.EqualFold(u.Handle, user.Handle) {
			return repositories.ErrUserHandleConflict
		}
	}
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Handle, handle) {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetHandles(ctx context.Context, ids []string) (map[string]string, error) {
	handles := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			handles[id] = u.Handle
		}
	}
	return handles, nil
}

func (r *fakeUserRepo) UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error {
	u, ok := r.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

func (r *fakeUserRepo) add(id, handle string) {
	r.users[id] = &models.User{ID: id, Handle: handle, CreatedAt: time.Now()}
}

type fakeScoreRepo struct {
	// keyed by user id, then puzzle date
	scores map[string]map[models.Date]models.Score
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[string]map[models.Date]models.Score)}
}

func (r *fakeScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	byDate, ok := r.scores[score.UserID]
	if !ok {
		byDate = make(map[models.Date]models.Score)
		r.scores[score.UserID] = byDate
	}
	if existing, ok := byDate[score.PuzzleDate]; ok {
		score.ID = existing.ID
		score.CreatedAt = existing.CreatedAt
	} else {
		score.CreatedAt = time.Now()
	}
	score.UpdatedAt = time.Now()
	byDate[score.PuzzleDate] = *score
	return nil
}

func (r *fakeScoreRepo) InsertIfAbsent(ctx context.Context, score *models.Score) (bool, error) {
	byDate, ok := r.scores[score.UserID]
	if !ok {
		byDate = make(map[models.Date]models.Score)
		r.scores[score.UserID] = byDate
	}
	if _, ok := byDate[score.PuzzleDate]; ok {
		return false, nil
	}
	score.CreatedAt = time.Now()
	score.UpdatedAt = score.CreatedAt
	byDate[score.PuzzleDate] = *score
	return true, nil
}

func (r *fakeScoreRepo) GetByUserAndDate(ctx context.Context, userID string, date models.Date) (*models.Score, error) {
	if s, ok := r.scores[userID][date]; ok {
		out := s
		return &out, nil
	}
	return nil, repositories.ErrScoreNotFound
}

func (r *fakeScoreRepo) ListByUserInRange(ctx context.Context, userID string, start, end models.Date) ([]models.Score, error) {
	var out []models.Score
	for date, s := range r.scores[userID] {
		if !date.Before(start) && !date.After(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PuzzleDate.Before(out[j].PuzzleDate) })
	return out, nil
}

func (r *fakeScoreRepo) ListByUsersInRange(ctx context.Context, userIDs []string, start, end models.Date) (map[string][]models.Score, error) {
	out := make(map[string][]models.Score)
	for _, id := range userIDs {
		scores, _ := r.ListByUserInRange(ctx, id, start, end)
		if len(scores) > 0 {
			out[id] = scores
		}
	}
	return out, nil
}

func (r *fakeScoreRepo) ListAllInRange(ctx context.Context, start, end models.Date) (map[string][]models.Score, error) {
	ids := make([]string, 0, len(r.scores))
	for id := range r.scores {
		ids = append(ids, id)
	}
	return r.ListByUsersInRange(ctx, ids, start, end)
}

func (r *fakeScoreRepo) ListActiveUserIDs(ctx context.Context, since models.Date) ([]string, error) {
	var ids []string
	for id, byDate := range r.scores {
		for date, s := range byDate {
			if s.Type == models.TypeRegular && !date.Before(since) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeTournamentRepo struct {
	tournaments  map[string]*models.Tournament
	participants map[string]map[string]time.Time // tournament id -> user id -> joined at
	handles      map[string]string

	resolvedCodes []string
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments:  make(map[string]*models.Tournament),
		participants: make(map[string]map[string]time.Time),
		handles:      make(map[string]string),
	}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	t.CreatedAt = time.Now()
	stored := *t
	r.tournaments[t.ID] = &stored
	r.participants[t.ID] = map[string]time.Time{t.CreatorID: time.Now()}
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok || !t.IsActive {
		return nil, repositories.ErrTournamentNotFound
	}
	out := *t
	out.Participants = nil
	for userID := range r.participants[id] {
		out.Participants = append(out.Participants, userID)
	}
	sort.Strings(out.Participants)
	return &out, nil
}

func (r *fakeTournamentRepo) ResolveJoinCode(ctx context.Context, code string) (string, error) {
	r.resolvedCodes = append(r.resolvedCodes, code)
	var matches []string
	for id, t := range r.tournaments {
		if t.IsActive && strings.HasPrefix(id, strings.ToLower(code)) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", repositories.ErrTournamentNotFound
	case 1:
		return matches[0], nil
	default:
		return "", repositories.ErrTournamentJoinCodeAmbiguous
	}
}

func (r *fakeTournamentRepo) AddParticipant(ctx context.Context, tournamentID, userID string) error {
	if _, ok := r.tournaments[tournamentID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	if _, ok := r.participants[tournamentID][userID]; !ok {
		r.participants[tournamentID][userID] = time.Now()
	}
	return nil
}

func (r *fakeTournamentRepo) RemoveParticipant(ctx context.Context, tournamentID, userID string) error {
	if _, ok := r.participants[tournamentID][userID]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.participants[tournamentID], userID)
	return nil
}

func (r *fakeTournamentRepo) ListParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	var out []models.Participant
	for userID, joined := range r.participants[tournamentID] {
		out = append(out, models.Participant{
			UserID:   userID,
			Handle:   r.handles[userID],
			JoinedAt: joined,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *fakeTournamentRepo) ListByParticipant(ctx context.Context, userID string) ([]models.Tournament, error) {
	var out []models.Tournament
	for id, t := range r.tournaments {
		if !t.IsActive {
			continue
		}
		if _, ok := r.participants[id][userID]; ok {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) ListPublic(ctx context.Context, limit, offset int) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if t.IsActive && t.Visibility == models.VisibilityPublic {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) SearchPublic(ctx context.Context, query string, limit int) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if t.IsActive && t.Visibility == models.VisibilityPublic &&
			strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) ListActiveEndedBefore(ctx context.Context, date models.Date) ([]models.Tournament, error) {
	var out []models.Tournament
	for _, t := range r.tournaments {
		if t.IsActive && t.Status == models.TournamentActive && t.ComputedEndDate().Before(date) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) MarkEnded(ctx context.Context, id string, winnerUserID *string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	now := time.Now()
	t.Status = models.TournamentEnded
	t.EndedAt = &now
	t.WinnerUserID = winnerUserID
	return nil
}

func (r *fakeTournamentRepo) SoftDelete(ctx context.Context, id string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.IsActive = false
	return nil
}

func (r *fakeTournamentRepo) ShareTournament(ctx context.Context, userA, userB string) (bool, error) {
	for _, members := range r.participants {
		_, a := members[userA]
		_, b := members[userB]
		if a && b {
			return true, nil
		}
	}
	return false, nil
}
