package bridge

import (
	"context"
	"time"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
	"signal_bridge/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("bridge",
		fx.Provide(
			func(cfg *config.Config, store queue.Store, led *ledger.Ledger, source candles.Source) *Paper {
				return NewPaper(store, led, source, cfg.SignalMaxAge)
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			b *Paper,
			cfg *config.Config,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						t := time.NewTicker(cfg.CycleInterval)
						defer t.Stop()
						for {
							select {
							case <-ctx.Done():
								return
							case <-t.C:
								if err := b.Poll(ctx, cfg.Symbol); err != nil {
									logger.Error("bridge poll %s: %v", cfg.Symbol, err)
								}
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
