package in_memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/port"
)

// Store keeps the serialized state in process memory. Used in tests and as
// the default backend when no durable store is configured. The blob is held
// as JSON so Load always hands back an isolated copy, same as the durable
// adapters.
type Store struct {
	mu   sync.Mutex
	blob []byte
}

var _ port.StateStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Save(ctx context.Context, state *domain.EngineState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("in_memory: marshal state: %w", err)
	}
	s.mu.Lock()
	s.blob = b
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(ctx context.Context) (*domain.EngineState, error) {
	s.mu.Lock()
	b := s.blob
	s.mu.Unlock()
	if b == nil {
		return nil, nil
	}
	var state domain.EngineState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("in_memory: unmarshal state: %w", err)
	}
	return &state, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.blob = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
