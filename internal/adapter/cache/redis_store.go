package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atlasmarkets/venue-sim/internal/domain"
	"github.com/atlasmarkets/venue-sim/internal/port"
)

const stateKey = "venue:state"

// RedisStore persists the engine state blob in redis under a single key with
// no TTL, for deployments where several consoles share one simulated venue.
type RedisStore struct {
	client *redis.Client
}

var _ port.StateStore = (*RedisStore)(nil)

func NewRedisStore(addr, password string, db int) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Save(ctx context.Context, state *domain.EngineState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("redis: marshal state: %w", err)
	}
	return s.client.Set(ctx, stateKey, b, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context) (*domain.EngineState, error) {
	b, err := s.client.Get(ctx, stateKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: load state: %w", err)
	}
	var state domain.EngineState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("redis: unmarshal state: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, stateKey).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
