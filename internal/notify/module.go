package notify

import (
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) (Notifier, error) {
				return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
			},
		),
	)
}
