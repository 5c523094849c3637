package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/parsix/parsix-backend/models"
)

var (
	ErrScoreNotFound    = errors.New("score not found")
	ErrScoreUserInvalid = errors.New("score user reference invalid")
)

type ScoreRepository interface {
	// Upsert writes a score for (user, puzzle date), updating the existing
	// row in place on resubmission. The stored id and created_at survive an
	// update; updated_at and the derived fields are refreshed.
	Upsert(ctx context.Context, score *models.Score) error
	// InsertIfAbsent writes a score only when no row exists for the
	// user/date pair yet. Returns false when a row was already present.
	// Used by penalty materialization: a penalty never replaces a
	// submitted score.
	InsertIfAbsent(ctx context.Context, score *models.Score) (bool, error)
	GetByUserAndDate(ctx context.Context, userID string, date models.Date) (*models.Score, error)
	ListByUserInRange(ctx context.Context, userID string, start, end models.Date) ([]models.Score, error)
	ListByUsersInRange(ctx context.Context, userIDs []string, start, end models.Date) (map[string][]models.Score, error)
	ListAllInRange(ctx context.Context, start, end models.Date) (map[string][]models.Score, error)
	// ListActiveUserIDs returns ids of users with at least one real
	// submission dated on or after since. Penalty records do not count as
	// activity, otherwise a lapsed player would accrue penalties forever.
	ListActiveUserIDs(ctx context.Context, since models.Date) ([]string, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

const scoreColumns = `id, user_id, puzzle_date, status, score_type, guesses_used, golf_score, source_text, created_at, updated_at`

func (r *postgresScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	query := `
		INSERT INTO scores (id, user_id, puzzle_date, status, score_type, guesses_used, golf_score, source_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, puzzle_date) DO UPDATE SET
			status = EXCLUDED.status,
			score_type = EXCLUDED.score_type,
			guesses_used = EXCLUDED.guesses_used,
			golf_score = EXCLUDED.golf_score,
			source_text = EXCLUDED.source_text,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		score.ID,
		score.UserID,
		score.PuzzleDate,
		score.Status,
		score.Type,
		score.GuessesUsed,
		score.GolfScore,
		score.SourceText,
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrScoreUserInvalid
		}
		return err
	}
	return nil
}

func (r *postgresScoreRepository) InsertIfAbsent(ctx context.Context, score *models.Score) (bool, error) {
	query := `
		INSERT INTO scores (id, user_id, puzzle_date, status, score_type, guesses_used, golf_score, source_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, puzzle_date) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		score.ID,
		score.UserID,
		score.PuzzleDate,
		score.Status,
		score.Type,
		score.GuessesUsed,
		score.GolfScore,
		score.SourceText,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return false, ErrScoreUserInvalid
		}
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *postgresScoreRepository) GetByUserAndDate(ctx context.Context, userID string, date models.Date) (*models.Score, error) {
	query := `SELECT ` + scoreColumns + ` FROM scores WHERE user_id = $1 AND puzzle_date = $2`

	var score models.Score
	err := r.db.QueryRowContext(ctx, query, userID, date).Scan(scoreFields(&score)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	score.Type = models.NormalizeScoreType(string(score.Type))
	return &score, nil
}

func (r *postgresScoreRepository) ListByUserInRange(ctx context.Context, userID string, start, end models.Date) ([]models.Score, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM scores
		WHERE user_id = $1 AND puzzle_date BETWEEN $2 AND $3
		ORDER BY puzzle_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectScores(rows)
}

func (r *postgresScoreRepository) ListByUsersInRange(ctx context.Context, userIDs []string, start, end models.Date) (map[string][]models.Score, error) {
	byUser := make(map[string][]models.Score, len(userIDs))
	if len(userIDs) == 0 {
		return byUser, nil
	}

	query := `
		SELECT ` + scoreColumns + `
		FROM scores
		WHERE user_id = ANY($1) AND puzzle_date BETWEEN $2 AND $3
		ORDER BY user_id, puzzle_date ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return groupScores(rows, byUser)
}

func (r *postgresScoreRepository) ListAllInRange(ctx context.Context, start, end models.Date) (map[string][]models.Score, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM scores
		WHERE puzzle_date BETWEEN $1 AND $2
		ORDER BY user_id, puzzle_date ASC`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return groupScores(rows, make(map[string][]models.Score))
}

func (r *postgresScoreRepository) ListActiveUserIDs(ctx context.Context, since models.Date) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM scores WHERE puzzle_date >= $1 AND score_type = 'regular'`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scoreFields(s *models.Score) []interface{} {
	return []interface{}{
		&s.ID,
		&s.UserID,
		&s.PuzzleDate,
		&s.Status,
		&s.Type,
		&s.GuessesUsed,
		&s.GolfScore,
		&s.SourceText,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

func collectScores(rows *sql.Rows) ([]models.Score, error) {
	scores := make([]models.Score, 0)
	for rows.Next() {
		var score models.Score
		if err := rows.Scan(scoreFields(&score)...); err != nil {
			return nil, err
		}
		score.Type = models.NormalizeScoreType(string(score.Type))
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

func groupScores(rows *sql.Rows, byUser map[string][]models.Score) (map[string][]models.Score, error) {
	for rows.Next() {
		var score models.Score
		if err := rows.Scan(scoreFields(&score)...); err != nil {
			return nil, err
		}
		score.Type = models.NormalizeScoreType(string(score.Type))
		byUser[score.UserID] = append(byUser[score.UserID], score)
	}
	return byUser, rows.Err()
}
