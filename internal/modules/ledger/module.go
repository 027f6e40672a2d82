package ledger

import (
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			func(cfg *config.Config) *Ledger {
				return New(cfg.LedgerDir)
			},
		),
	)
}
