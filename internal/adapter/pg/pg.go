package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/port"
)

const stateKey = "venue:state"

// PgStore persists the engine state blob as a jsonb row keyed by a fixed
// name. One row, upserted every tick.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ port.StateStore = (*PgStore)(nil)

// call Close when finished working with the database.
func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	s := &PgStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS venue_state(
  key        text PRIMARY KEY,
  state      jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("pg: ensure schema: %w", err)
	}
	return nil
}

func (s *PgStore) Save(ctx context.Context, state *domain.EngineState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("pg: marshal state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO venue_state(key, state, updated_at)
VALUES($1, $2, now())
ON CONFLICT (key) DO UPDATE SET
  state = EXCLUDED.state,
  updated_at = EXCLUDED.updated_at
`, stateKey, b)
	if err != nil {
		return fmt.Errorf("pg: save state: %w", err)
	}
	return nil
}

func (s *PgStore) Load(ctx context.Context) (*domain.EngineState, error) {
	var b []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM venue_state WHERE key = $1`, stateKey).Scan(&b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pg: load state: %w", err)
	}
	var state domain.EngineState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("pg: unmarshal state: %w", err)
	}
	return &state, nil
}

func (s *PgStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM venue_state WHERE key = $1`, stateKey)
	if err != nil {
		return fmt.Errorf("pg: clear state: %w", err)
	}
	return nil
}

func (s *PgStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
