package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parsix/parsix-backend/live"
	"github.com/parsix/parsix-backend/models"
)

type tournamentFixture struct {
	scores      *fakeScoreRepo
	tournaments *fakeTournamentRepo
	users       *fakeUserRepo
	svc         TournamentService
}

func newTournamentFixture() *tournamentFixture {
	f := &tournamentFixture{
		scores:      newFakeScoreRepo(),
		tournaments: newFakeTournamentRepo(),
		users:       newFakeUserRepo(),
	}
	f.svc = NewTournamentService(f.tournaments, f.scores, f.users, live.NewHub(), testLogger())
	return f
}

func (f *tournamentFixture) addUser(id, handle string) {
	f.users.add(id, handle)
	f.tournaments.handles[id] = handle
}

func TestTournamentServiceCreate(t *testing.T) {
	today := models.Today()

	tests := []struct {
		name    string
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:  "valid nine day tournament",
			input: CreateTournamentInput{Name: "Morning League", StartDate: today, DurationDays: 9},
		},
		{
			name:  "valid eighteen day tournament",
			input: CreateTournamentInput{Name: "Full Round", StartDate: today, DurationDays: 18, Visibility: models.VisibilityPublic},
		},
		{
			name:    "name too short",
			input:   CreateTournamentInput{Name: "ab", StartDate: today, DurationDays: 9},
			wantErr: ErrTournamentNameLength,
		},
		{
			name:    "start date required",
			input:   CreateTournamentInput{Name: "Morning League", DurationDays: 9},
			wantErr: ErrTournamentStartRequired,
		},
		{
			name:    "invalid duration",
			input:   CreateTournamentInput{Name: "Morning League", StartDate: today, DurationDays: 10},
			wantErr: ErrTournamentInvalidDuration,
		},
		{
			name:    "invalid visibility",
			input:   CreateTournamentInput{Name: "Morning League", StartDate: today, DurationDays: 9, Visibility: "secret"},
			wantErr: ErrTournamentInvalidVisibility,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTournamentFixture()
			f.addUser("u1", "alice")

			tournament, err := f.svc.Create(context.Background(), "u1", tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, tournament.ID)
			require.Equal(t, models.TournamentActive, tournament.Status)
			require.Equal(t, tt.input.StartDate.AddDays(tt.input.DurationDays-1), tournament.EndDate)
			require.Contains(t, tournament.Participants, "u1")
		})
	}
}

func TestTournamentServiceJoinByCode(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")
	f.addUser("u2", "bob")

	created, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Morning League",
		StartDate:    models.Today(),
		DurationDays: 9,
	})
	require.NoError(t, err)

	joined, err := f.svc.Join(context.Background(), created.ID[:8], "u2")
	require.NoError(t, err)
	require.Equal(t, created.ID, joined.ID)
	require.Contains(t, joined.Participants, "u2")

	// Joining again is idempotent.
	joined, err = f.svc.Join(context.Background(), created.ID, "u2")
	require.NoError(t, err)
	require.Len(t, joined.Participants, 2)

	_, err = f.svc.Join(context.Background(), "ffffffff", "u2")
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentServiceJoinRejectsNonHexCode(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")
	f.addUser("u2", "mallory")

	created, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Invite Only",
		StartDate:    models.Today(),
		DurationDays: 9,
		Visibility:   models.VisibilityPrivate,
	})
	require.NoError(t, err)

	// Codes are id prefixes, so only hex digits may ever hit the
	// prefix-match query; these would otherwise act as LIKE wildcards.
	for _, code := range []string{"%", "_", "____", "a%", "", "f-f'f"} {
		_, err := f.svc.Join(context.Background(), code, "u2")
		require.ErrorIs(t, err, ErrTournamentNotFound, "code %q", code)
	}
	require.Empty(t, f.tournaments.resolvedCodes)

	after, err := f.svc.Get(context.Background(), created.ID, "u1")
	require.NoError(t, err)
	require.NotContains(t, after.Tournament.Participants, "u2")
}

func TestTournamentServiceLeave(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")
	f.addUser("u2", "bob")

	created, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Morning League",
		StartDate:    models.Today(),
		DurationDays: 9,
	})
	require.NoError(t, err)

	_, err = f.svc.Leave(context.Background(), created.ID, "u2")
	require.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.Join(context.Background(), created.ID, "u2")
	require.NoError(t, err)

	after, err := f.svc.Leave(context.Background(), created.ID, "u2")
	require.NoError(t, err)
	require.NotContains(t, after.Participants, "u2")
}

func TestTournamentServiceDeleteCreatorOnly(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")
	f.addUser("u2", "bob")

	created, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Morning League",
		StartDate:    models.Today(),
		DurationDays: 9,
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), created.ID, "u2")
	require.ErrorIs(t, err, ErrForbiddenOperation)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID, "u1"))

	_, err = f.svc.Get(context.Background(), created.ID, "u1")
	require.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentServiceEnd(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")
	f.addUser("u2", "bob")
	start := models.Today().AddDays(-8)

	created, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Morning League",
		StartDate:    start,
		DurationDays: 9,
	})
	require.NoError(t, err)
	_, err = f.svc.Join(context.Background(), created.ID, "u2")
	require.NoError(t, err)

	// bob outscores alice over the window.
	for day := 0; day < 9; day++ {
		date := start.AddDays(day)
		require.NoError(t, f.scores.Upsert(context.Background(), &models.Score{
			ID: "a" + date.String(), UserID: "u1", PuzzleDate: date,
			Status: models.StatusSolved, Type: models.TypeRegular,
			GuessesUsed: intPtr(4), GolfScore: 0,
		}))
		require.NoError(t, f.scores.Upsert(context.Background(), &models.Score{
			ID: "b" + date.String(), UserID: "u2", PuzzleDate: date,
			Status: models.StatusSolved, Type: models.TypeRegular,
			GuessesUsed: intPtr(3), GolfScore: -1,
		}))
	}

	_, err = f.svc.Results(context.Background(), created.ID)
	require.ErrorIs(t, err, ErrTournamentStillActive)

	_, err = f.svc.End(context.Background(), created.ID, "u2")
	require.ErrorIs(t, err, ErrForbiddenOperation)

	results, err := f.svc.End(context.Background(), created.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, results.Winner)
	require.Equal(t, "u2", results.Winner.UserID)
	require.Equal(t, -9, results.Winner.TotalScore)
	require.Len(t, results.FinalStandings, 2)
	require.Equal(t, 1, results.FinalStandings[0].Position)

	_, err = f.svc.End(context.Background(), created.ID, "u1")
	require.ErrorIs(t, err, ErrTournamentAlreadyEnded)

	// Results stay available after the end.
	results, err = f.svc.Results(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "u2", results.Winner.UserID)
}

func TestTournamentServiceAutoEndExpired(t *testing.T) {
	f := newTournamentFixture()
	f.addUser("u1", "alice")

	expired, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "Last Month",
		StartDate:    models.Today().AddDays(-20),
		DurationDays: 9,
	})
	require.NoError(t, err)

	current, err := f.svc.Create(context.Background(), "u1", CreateTournamentInput{
		Name:         "This Week",
		StartDate:    models.Today().AddDays(-2),
		DurationDays: 9,
	})
	require.NoError(t, err)

	ended, err := f.svc.AutoEndExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{expired.ID}, ended)

	summary, err := f.svc.Get(context.Background(), current.ID, "u1")
	require.NoError(t, err)
	require.Equal(t, models.TournamentActive, summary.Tournament.Status)
}
