// Package repository provides persistence implementations for the client
// session store.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresSessionRepository stores session payloads in the
// client_sessions table, one row per storage key.
type PostgresSessionRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresSessionRepository creates a repository on db.
// db must be a valid *sql.DB connected to a PostgreSQL instance with the
// schema created by db.InitPostgres.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

// Load returns the payload stored under key, or nil if there is none.
func (r *PostgresSessionRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT payload FROM client_sessions WHERE storage_key = $1`,
		key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return payload, err
}

// Save inserts or replaces the payload under key and refreshes its
// timestamp, which the stale session cleaner relies on.
func (r *PostgresSessionRepository) Save(ctx context.Context, key string, payload []byte) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO client_sessions (storage_key, payload, updated_at)
         VALUES ($1, $2, NOW())
         ON CONFLICT (storage_key) DO UPDATE
           SET payload = EXCLUDED.payload, updated_at = NOW()`,
		key, payload,
	)
	return err
}

// Remove deletes the row under key. Removing an absent key is not an error.
func (r *PostgresSessionRepository) Remove(ctx context.Context, key string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`DELETE FROM client_sessions WHERE storage_key = $1`,
		key,
	)
	return err
}
