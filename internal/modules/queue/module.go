package queue

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/pkg/db"
)

// Module выбирает бэкенд очереди по конфигу.
func Module() fx.Option {
	return fx.Module("queue",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (Store, error) {
				switch cfg.Queue.Backend {
				case config.QueueBackendRedis:
					return NewRedisStore(cfg.Queue.Redis.Addr, cfg.Queue.Redis.Password, cfg.Queue.Redis.DB), nil

				case config.QueueBackendPostgres:
					pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.Queue.PostgresDSN})
					if err != nil {
						return nil, fmt.Errorf("failed to create pool: %w", err)
					}
					if err := pool.Ping(ctx); err != nil {
						return nil, err
					}
					store := NewPostgresStore(db.NewPgTxManager(pool))
					if err := store.EnsureSchema(ctx); err != nil {
						return nil, err
					}
					return store, nil

				default:
					return NewMemoryStore(), nil
				}
			},
		),
	)
}
