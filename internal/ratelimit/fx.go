package ratelimit

import (
	"context"

	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/clock"
	"github.com/felipemonteiro-bfx/warranty-tracker-sub001/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(DefaultCatalog),
	fx.Provide(NewStore),
	fx.Provide(NewService),
	fx.Provide(newJanitor),
	fx.Invoke(runJanitor),
)

// NewStore picks the counter backend: process memory by default, Redis when
// an address is configured so replicas share budgets.
func NewStore(cfg config.Config, log *zap.Logger) Store {
	addr := cfg.RateLimit.RedisAddr
	if addr == "" {
		return NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RateLimit.RedisPassword,
	})
	log.Named("ratelimit").Info("using redis limiter store", zap.String("addr", addr))
	return NewRedisStore(client)
}

func newJanitor(store Store, clk clock.Clock, log *zap.Logger, cfg config.Config) *Janitor {
	return NewJanitor(store, clk, log, cfg.RateLimit.SweepInterval)
}

func runJanitor(lc fx.Lifecycle, janitor *Janitor) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go janitor.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
