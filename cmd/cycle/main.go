package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/health"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
	"signal_bridge/internal/notify"
	"signal_bridge/internal/runner"
	"signal_bridge/pkg/logger"
	"signal_bridge/pkg/tracing"
)

func main() {
	logger.SetServiceName("cycle")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	tracing.SetServiceName("cycle")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		candles.Module(),
		queue.Module(),
		ledger.Module(),
		notify.Module(),
		health.Module(),
		runner.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
