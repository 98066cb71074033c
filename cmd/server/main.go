package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasmarkets/venue-sim/internal/adapter/cache"
	"github.com/atlasmarkets/venue-sim/internal/adapter/in_memory"
	"github.com/atlasmarkets/venue-sim/internal/adapter/pebblestore"
	"github.com/atlasmarkets/venue-sim/internal/adapter/pg"
	httpapi "github.com/atlasmarkets/venue-sim/internal/api/http"
	"github.com/atlasmarkets/venue-sim/internal/config"
	"github.com/atlasmarkets/venue-sim/internal/feed"
	"github.com/atlasmarkets/venue-sim/internal/logger"
	"github.com/atlasmarkets/venue-sim/internal/metrics"
	"github.com/atlasmarkets/venue-sim/internal/port"
	"github.com/atlasmarkets/venue-sim/internal/risk"
	"github.com/atlasmarkets/venue-sim/internal/sim"
)

func main() {
	cfg := config.LoadFromEnv("")
	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}
	defer store.Close()

	bus := feed.New(log)

	engCfg := sim.Default()
	engCfg.TickInterval = cfg.TickInterval
	engCfg.Seed = cfg.Seed
	engCfg.Limits = risk.Limits{MaxQty: cfg.MaxOrderQty, MaxNotional: cfg.MaxNotional}

	engine, err := sim.New(ctx, engCfg, store, bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct engine")
	}

	tracker := metrics.NewTracker()
	bus.Subscribe(tracker.Observe)

	engine.Start(ctx)

	server := httpapi.NewServer(engine, bus, tracker,
		engCfg.StartingUSD, cfg.SubmitThrottle, log)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting venue gateway")
		if err := server.Run(cfg.ListenAddr); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced server shutdown")
	}
}

func newStore(ctx context.Context, cfg config.Config) (port.StateStore, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return in_memory.NewStore(), nil
	case config.StorePebble:
		return pebblestore.NewStore(cfg.PebblePath)
	case config.StoreRedis:
		return cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB), nil
	case config.StorePostgres:
		return pg.NewPgStore(ctx, cfg.PgDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
