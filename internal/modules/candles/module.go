package candles

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
)

// Module отдаёт источник свечей: synthetic для прогонов без сети,
// stream — живые закрытые свечи по WebSocket.
func Module() fx.Option {
	return fx.Module("candles",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config, ctx context.Context) Source {
				if cfg.CandleSource != config.CandleSourceStream {
					return NewSyntheticSource()
				}

				s := NewStreamSource(cfg.Timeframe)
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						go s.Run(ctx, []string{cfg.Symbol})
						return nil
					},
				})
				return s
			},
		),
	)
}
