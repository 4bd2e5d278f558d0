package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"better-wordle-bot/internal/model"
	"better-wordle-bot/internal/pkg/db"
)

const stateKey = "default"

// PostgresStore keeps the state as a JSONB document in a single row.
type PostgresStore struct {
	pool *db.Pool
}

// NewPostgresStore creates the state table if needed.
func NewPostgresStore(ctx context.Context, pool *db.Pool) (*PostgresStore, error) {
	if err := Migrate(ctx, pool.Pool); err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bot_state (
			id VARCHAR(32) PRIMARY KEY,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create bot_state table: %w", err)
	}
	return nil
}

// Load reads the state row. No row is an empty state.
func (s *PostgresStore) Load(ctx context.Context) (*model.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM bot_state WHERE id = $1`,
		stateKey,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return decodeState(data)
}

// Save upserts the state row.
func (s *PostgresStore) Save(ctx context.Context, state *model.State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO bot_state (id, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`, stateKey, data)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
