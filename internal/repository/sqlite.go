package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"better-wordle-bot/internal/model"
)

// SQLiteStore keeps the state as a JSON document in a single row.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bot_state (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create bot_state table: %w", err)
	}

	log.Info().Str("path", cleanPath).Msg("Opened SQLite state store")
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Load reads the state row. No row is an empty state.
func (s *SQLiteStore) Load(ctx context.Context) (*model.State, error) {
	if s == nil || s.sqlDB == nil {
		return nil, ErrStoreClosed
	}
	var data string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT document FROM bot_state WHERE id = ?`,
		stateKey,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return decodeState([]byte(data))
}

// Save upserts the state row.
func (s *SQLiteStore) Save(ctx context.Context, state *model.State) error {
	if s == nil || s.sqlDB == nil {
		return ErrStoreClosed
	}
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO bot_state (id, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
	`, stateKey, string(data))
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	err := s.sqlDB.Close()
	s.sqlDB = nil
	return err
}
