// Package repository persists the bot state document.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"better-wordle-bot/internal/config"
	"better-wordle-bot/internal/model"
	"better-wordle-bot/internal/pkg/db"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("store is closed")

// Store loads and saves the whole state document at once.
// A store with nothing saved yet loads an empty state.
type Store interface {
	Load(ctx context.Context) (*model.State, error)
	Save(ctx context.Context, state *model.State) error
	Close() error
}

// Open builds the store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile:
		return NewFileStore(cfg.Storage.Path)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Storage.Path)
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func encodeState(state *model.State) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (*model.State, error) {
	state := model.NewState()
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	state.Normalize()
	return state, nil
}
