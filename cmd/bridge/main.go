package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"signal_bridge/internal/bridge"
	"signal_bridge/internal/modules/candles"
	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/ledger"
	"signal_bridge/internal/modules/queue"
	"signal_bridge/pkg/logger"
)

func main() {
	logger.SetServiceName("bridge")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

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
		bridge.Module(),
	)
	app.Run()
}
