package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/parsix/parsix-backend/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserHandleConflict = errors.New("user handle conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)
	GetHandles(ctx context.Context, ids []string) (map[string]string, error)
	UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, handle, handle_lower, password_hash)
		VALUES ($1, $2, lower($2), $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Handle,
		user.PasswordHash,
	).Scan(&user.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_handle_lower_key" {
				return ErrUserHandleConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, handle, password_hash, avatar_key, created_at
		FROM users
		WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

// GetByHandle looks up a user by handle, case-insensitively.
func (r *postgresUserRepository) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	query := `
		SELECT id, handle, password_hash, avatar_key, created_at
		FROM users
		WHERE handle_lower = lower($1)`
	return r.scanUser(ctx, query, handle)
}

// GetHandles resolves a batch of user ids to display handles. Unknown ids are
// silently absent from the result.
func (r *postgresUserRepository) GetHandles(ctx context.Context, ids []string) (map[string]string, error) {
	handles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return handles, nil
	}

	query := `SELECT id, handle FROM users WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, handle string
		if err := rows.Scan(&id, &handle); err != nil {
			return nil, err
		}
		handles[id] = handle
	}
	return handles, rows.Err()
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID string, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Handle,
		&user.PasswordHash,
		&user.AvatarKey,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
