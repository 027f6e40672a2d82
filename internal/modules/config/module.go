package config

import "go.uber.org/fx"

// Module отдаёт конфиг как fx-провайдер: грузим один раз на старте.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
	)
}
