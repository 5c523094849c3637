package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parsix/parsix-backend/golf"
	"github.com/parsix/parsix-backend/live"
	"github.com/parsix/parsix-backend/models"
)

type scoreFixture struct {
	scores      *fakeScoreRepo
	tournaments *fakeTournamentRepo
	users       *fakeUserRepo
	svc         ScoreService
}

func newScoreFixture() *scoreFixture {
	f := &scoreFixture{
		scores:      newFakeScoreRepo(),
		tournaments: newFakeTournamentRepo(),
		users:       newFakeUserRepo(),
	}
	logger := testLogger()
	tournamentSvc := NewTournamentService(f.tournaments, f.scores, f.users, live.NewHub(), logger)
	f.svc = NewScoreService(f.scores, f.tournaments, f.users, tournamentSvc, logger)
	return f
}

func intPtr(v int) *int { return &v }

func TestScoreServiceSubmitShareText(t *testing.T) {
	f := newScoreFixture()
	f.users.add("u1", "alice")
	today := models.Today()

	shareText := "Wordle 1,234 3/6\n🟩🟨⬜⬜⬜\n⬛🟩🟨⬜⬜\n🟩🟩🟩🟩🟩"
	score, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate: today,
		ShareText:  shareText,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSolved, score.Status)
	require.Equal(t, models.TypeRegular, score.Type)
	require.Equal(t, 3, *score.GuessesUsed)
	require.Equal(t, -1, score.GolfScore)
	require.NotNil(t, score.SourceText)
}

func TestScoreServiceSubmitValidation(t *testing.T) {
	today := models.Today()

	tests := []struct {
		name    string
		input   SubmitScoreInput
		wantErr error
	}{
		{
			name:    "date required",
			input:   SubmitScoreInput{Status: models.StatusSolved, GuessesUsed: intPtr(3)},
			wantErr: ErrScoreDateRequired,
		},
		{
			name: "future date rejected",
			input: SubmitScoreInput{
				PuzzleDate: today.AddDays(1),
				Status:     models.StatusSolved,
				GuessesUsed: intPtr(3),
			},
			wantErr: ErrScoreDateInFuture,
		},
		{
			name:    "outcome required",
			input:   SubmitScoreInput{PuzzleDate: today},
			wantErr: ErrScoreOutcomeRequired,
		},
		{
			name:    "solved needs guess count",
			input:   SubmitScoreInput{PuzzleDate: today, Status: models.StatusSolved},
			wantErr: ErrScoreInvalidGuesses,
		},
		{
			name: "guess count out of range",
			input: SubmitScoreInput{
				PuzzleDate:  today,
				Status:      models.StatusSolved,
				GuessesUsed: intPtr(7),
			},
			wantErr: ErrScoreInvalidGuesses,
		},
		{
			name: "dnf must not carry guesses",
			input: SubmitScoreInput{
				PuzzleDate:  today,
				Status:      models.StatusDNF,
				GuessesUsed: intPtr(4),
			},
			wantErr: ErrScoreGuessesForbidden,
		},
		{
			name: "malformed share text",
			input: SubmitScoreInput{
				PuzzleDate: today,
				ShareText:  "not a wordle share at all",
			},
			wantErr: golf.ErrMalformedHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScoreFixture()
			f.users.add("u1", "alice")
			_, err := f.svc.Submit(context.Background(), "u1", tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScoreServiceResubmissionOverwrites(t *testing.T) {
	f := newScoreFixture()
	f.users.add("u1", "alice")
	today := models.Today()

	first, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(5),
	})
	require.NoError(t, err)
	require.Equal(t, 1, first.GolfScore)

	second, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(2),
	})
	require.NoError(t, err)
	require.Equal(t, -2, second.GolfScore)

	scores, err := f.svc.GetUserScores(context.Background(), "u1", golf.DateRange{Start: today, End: today})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.Equal(t, -2, scores[0].GolfScore)
	require.Equal(t, first.ID, scores[0].ID)
}

func TestScoreServiceSubmissionReplacesPenalty(t *testing.T) {
	f := newScoreFixture()
	f.users.add("u1", "alice")
	today := models.Today()

	penalties := NewPenaltyService(f.scores, testLogger())

	// Seed activity so the penalty job considers the user, then penalize today.
	_, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate:  today.AddDays(-1),
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(4),
	})
	require.NoError(t, err)

	applied, err := penalties.ApplyDailyPenalties(context.Background(), today)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	// A real submission for the penalized day replaces the penalty record.
	score, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(3),
	})
	require.NoError(t, err)
	require.Equal(t, models.TypeRegular, score.Type)
	require.Equal(t, -1, score.GolfScore)

	// The reverse never holds: re-running the job does not claw the day back.
	applied, err = penalties.ApplyDailyPenalties(context.Background(), today)
	require.NoError(t, err)
	require.Zero(t, applied)

	stored, err := f.scores.GetByUserAndDate(context.Background(), "u1", today)
	require.NoError(t, err)
	require.Equal(t, models.TypeRegular, stored.Type)
}

func TestScoreServicePlayerVisibility(t *testing.T) {
	f := newScoreFixture()
	f.users.add("u1", "alice")
	f.users.add("u2", "bob")
	f.users.add("u3", "carol")
	today := models.Today()
	window := golf.DateRange{Start: today.AddDays(-6), End: today}

	_, err := f.svc.Submit(context.Background(), "u2", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(4),
	})
	require.NoError(t, err)

	// alice and bob share a tournament, carol is an outsider.
	require.NoError(t, f.tournaments.Create(context.Background(), &models.Tournament{
		ID:           "t1",
		Name:         "Weekday Open",
		CreatorID:    "u1",
		StartDate:    today,
		DurationDays: 9,
		Visibility:   models.VisibilityPrivate,
		Status:       models.TournamentActive,
		IsActive:     true,
	}))
	require.NoError(t, f.tournaments.AddParticipant(context.Background(), "t1", "u2"))

	scores, err := f.svc.GetPlayerScores(context.Background(), "u1", "u2", window)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	_, err = f.svc.GetPlayerScores(context.Background(), "u3", "u2", window)
	require.ErrorIs(t, err, ErrForbiddenOperation)

	// Self access needs no shared tournament.
	scores, err = f.svc.GetPlayerScores(context.Background(), "u2", "u2", window)
	require.NoError(t, err)
	require.Len(t, scores, 1)
}

func TestScoreServiceLeaderboard(t *testing.T) {
	f := newScoreFixture()
	f.users.add("u1", "alice")
	f.users.add("u2", "bob")
	today := models.Today()
	window := golf.DateRange{Start: today.AddDays(-6), End: today}

	_, err := f.svc.Submit(context.Background(), "u1", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(2),
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), "u2", SubmitScoreInput{
		PuzzleDate:  today,
		Status:      models.StatusSolved,
		GuessesUsed: intPtr(5),
	})
	require.NoError(t, err)

	entries, err := f.svc.Leaderboard(context.Background(), window, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "alice", entries[0].Handle)
	require.Equal(t, -2, entries[0].TotalGolfScore)
	require.Equal(t, "bob", entries[1].Handle)

	_, err = f.svc.Leaderboard(context.Background(), golf.DateRange{Start: today, End: today.AddDays(-1)}, 0)
	require.ErrorIs(t, err, ErrDateRangeInvalid)
}
