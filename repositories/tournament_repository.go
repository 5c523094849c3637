package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/parsix/parsix-backend/models"
)

var (
	ErrTournamentNotFound          = errors.New("tournament not found")
	ErrTournamentJoinCodeAmbiguous = errors.New("tournament join code matches multiple tournaments")
	ErrParticipantNotFound         = errors.New("participant registration not found")
	ErrTournamentCreatorInvalid    = errors.New("invalid tournament creator reference")
)

type TournamentRepository interface {
	// Create inserts the tournament and registers the creator as its first
	// participant in one transaction.
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	// ResolveJoinCode maps an id prefix (the 8-char join code shown in the
	// app) to the full tournament id.
	ResolveJoinCode(ctx context.Context, code string) (string, error)
	AddParticipant(ctx context.Context, tournamentID, userID string) error
	RemoveParticipant(ctx context.Context, tournamentID, userID string) error
	ListParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Tournament, error)
	ListPublic(ctx context.Context, limit, offset int) ([]models.Tournament, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]models.Tournament, error)
	// ListActiveEndedBefore returns active tournaments whose window closed
	// before the given date; used by the auto-end job.
	ListActiveEndedBefore(ctx context.Context, date models.Date) ([]models.Tournament, error)
	MarkEnded(ctx context.Context, id string, winnerUserID *string) error
	SoftDelete(ctx context.Context, id string) error
	// ShareTournament reports whether two users are participants of at
	// least one common active tournament.
	ShareTournament(ctx context.Context, userA, userB string) (bool, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, creator_id, start_date, duration_days, end_date, visibility, status, is_active, created_at, ended_at, winner_user_id`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tournaments (id, name, creator_id, start_date, duration_days, end_date, visibility, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err = tx.QueryRowContext(ctx, query,
		t.ID,
		t.Name,
		t.CreatorID,
		t.StartDate,
		t.DurationDays,
		t.EndDate,
		t.Visibility,
		t.Status,
		t.IsActive,
	).Scan(&t.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrTournamentCreatorInvalid
		}
		return err
	}

	if err := insertParticipant(ctx, tx, t.ID, t.CreatorID); err != nil {
		return err
	}

	return tx.Commit()
}

func insertParticipant(ctx context.Context, exec SQLExecutor, tournamentID, userID string) error {
	query := `
		INSERT INTO tournament_participants (tournament_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (tournament_id, user_id) DO NOTHING`

	_, err := exec.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrTournamentNotFound
		}
	}
	return err
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 AND is_active = true`

	var t models.Tournament
	err := r.db.QueryRowContext(ctx, query, id).Scan(tournamentFields(&t)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	participants, err := r.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Participants = make([]string, 0, len(participants))
	for _, p := range participants {
		t.Participants = append(t.Participants, p.UserID)
	}
	return &t, nil
}

func (r *postgresTournamentRepository) ResolveJoinCode(ctx context.Context, code string) (string, error) {
	// The code is bound as a LIKE prefix, so it must stay inside the hex
	// id alphabet; % or _ here would prefix-match arbitrary rows.
	for _, c := range code {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return "", ErrTournamentNotFound
		}
	}

	query := `
		SELECT id FROM tournaments
		WHERE id::text LIKE lower($1) || '%' AND is_active = true
		LIMIT 2`

	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", ErrTournamentNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrTournamentJoinCodeAmbiguous
	}
}

func (r *postgresTournamentRepository) AddParticipant(ctx context.Context, tournamentID, userID string) error {
	return insertParticipant(ctx, r.db, tournamentID, userID)
}

func (r *postgresTournamentRepository) RemoveParticipant(ctx context.Context, tournamentID, userID string) error {
	query := `DELETE FROM tournament_participants WHERE tournament_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresTournamentRepository) ListParticipants(ctx context.Context, tournamentID string) ([]models.Participant, error) {
	query := `
		SELECT tp.user_id, u.handle, tp.joined_at
		FROM tournament_participants tp
		JOIN users u ON u.id = tp.user_id
		WHERE tp.tournament_id = $1
		ORDER BY tp.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Handle, &p.JoinedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresTournamentRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Tournament, error) {
	query := `
		SELECT ` + prefixedTournamentColumns("t") + `
		FROM tournaments t
		JOIN tournament_participants tp ON tp.tournament_id = t.id
		WHERE tp.user_id = $1 AND t.is_active = true
		ORDER BY t.start_date DESC, t.created_at DESC`

	return r.listTournaments(ctx, query, userID)
}

func (r *postgresTournamentRepository) ListPublic(ctx context.Context, limit, offset int) ([]models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE visibility = 'public' AND is_active = true
		ORDER BY start_date DESC, created_at DESC
		LIMIT $1 OFFSET $2`

	return r.listTournaments(ctx, query, limit, offset)
}

func (r *postgresTournamentRepository) SearchPublic(ctx context.Context, search string, limit int) ([]models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE visibility = 'public' AND is_active = true AND name ILIKE '%' || $1 || '%'
		ORDER BY start_date DESC, created_at DESC
		LIMIT $2`

	return r.listTournaments(ctx, query, search, limit)
}

func (r *postgresTournamentRepository) ListActiveEndedBefore(ctx context.Context, date models.Date) ([]models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = 'active' AND is_active = true AND end_date < $1`

	return r.listTournaments(ctx, query, date)
}

func (r *postgresTournamentRepository) MarkEnded(ctx context.Context, id string, winnerUserID *string) error {
	query := `
		UPDATE tournaments
		SET status = 'ended', ended_at = now(), winner_user_id = $2
		WHERE id = $1 AND status = 'active'`

	result, err := r.db.ExecContext(ctx, query, id, winnerUserID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE tournaments SET is_active = false, deleted_at = now() WHERE id = $1 AND is_active = true`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ShareTournament(ctx context.Context, userA, userB string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM tournament_participants a
			JOIN tournament_participants b ON a.tournament_id = b.tournament_id
			JOIN tournaments t ON t.id = a.tournament_id
			WHERE a.user_id = $1 AND b.user_id = $2 AND t.is_active = true
		)`

	var shared bool
	if err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(&shared); err != nil {
		return false, err
	}
	return shared, nil
}

func (r *postgresTournamentRepository) listTournaments(ctx context.Context, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(tournamentFields(&t)...); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func tournamentFields(t *models.Tournament) []interface{} {
	return []interface{}{
		&t.ID,
		&t.Name,
		&t.CreatorID,
		&t.StartDate,
		&t.DurationDays,
		&t.EndDate,
		&t.Visibility,
		&t.Status,
		&t.IsActive,
		&t.CreatedAt,
		&t.EndedAt,
		&t.WinnerUserID,
	}
}

func prefixedTournamentColumns(alias string) string {
	return fmt.Sprintf(
		"%[1]s.id, %[1]s.name, %[1]s.creator_id, %[1]s.start_date, %[1]s.duration_days, %[1]s.end_date, %[1]s.visibility, %[1]s.status, %[1]s.is_active, %[1]s.created_at, %[1]s.ended_at, %[1]s.winner_user_id",
		alias,
	)
}
