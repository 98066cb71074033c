package port

import (
	"context"

	"github.com/atlasmarkets/venue-sim/internal/domain"
)

// StateStore persists the engine's full state as a single blob under one
// key. Load returns (nil, nil) when no prior state exists.
type StateStore interface {
	Save(ctx context.Context, state *domain.EngineState) error
	Load(ctx context.Context) (*domain.EngineState, error)
	Clear(ctx context.Context) error
	Close() error
}
