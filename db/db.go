package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// EnsureSchema creates the tables the repositories assume. Statements are
// idempotent so startup is safe against an already-provisioned database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			handle TEXT NOT NULL,
			handle_lower TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar_key TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT users_handle_lower_key UNIQUE (handle_lower)
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			puzzle_date DATE NOT NULL,
			status TEXT NOT NULL,
			score_type TEXT NOT NULL,
			guesses_used INT,
			golf_score INT NOT NULL,
			source_text TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT scores_user_date_key UNIQUE (user_id, puzzle_date)
		)`,
		`CREATE TABLE IF NOT EXISTS tournaments (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			creator_id UUID NOT NULL REFERENCES users(id),
			start_date DATE NOT NULL,
			duration_days INT NOT NULL,
			end_date DATE NOT NULL,
			visibility TEXT NOT NULL,
			status TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			winner_user_id UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			ended_at TIMESTAMPTZ,
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS tournament_participants (
			tournament_id UUID NOT NULL REFERENCES tournaments(id),
			user_id UUID NOT NULL REFERENCES users(id),
			joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (tournament_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS scores_puzzle_date_idx ON scores (puzzle_date)`,
		`CREATE INDEX IF NOT EXISTS tournaments_visibility_idx ON tournaments (visibility) WHERE is_active`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
