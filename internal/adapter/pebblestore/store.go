package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/port"
)

var stateKey = []byte("venue:state")

// Store persists the engine state blob in a local pebble database. This is
// the default durable backend: embedded, no external process, survives
// restarts the way the browser build survived reloads.
type Store struct {
	db *pebble.DB
}

var _ port.StateStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, state *domain.EngineState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("pebble: marshal state: %w", err)
	}
	if err := s.db.Set(stateKey, b, pebble.Sync); err != nil {
		return fmt.Errorf("pebble: save state: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*domain.EngineState, error) {
	val, closer, err := s.db.Get(stateKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pebble: load state: %w", err)
	}
	defer closer.Close()

	var state domain.EngineState
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, fmt.Errorf("pebble: unmarshal state: %w", err)
	}
	return &state, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.Delete(stateKey, pebble.Sync); err != nil {
		return fmt.Errorf("pebble: clear state: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
