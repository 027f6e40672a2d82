package runner

import (
	"context"
	"time"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/health/service"
	"signal_bridge/pkg/logger"
)

type loopParams struct {
	fx.In

	Runner *Runner
	Cfg    *config.Config
	Ctx    context.Context
	State  *service.State `optional:"true"`
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewRunner,
		),
		fx.Invoke(func(lc fx.Lifecycle, p loopParams) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						t := time.NewTicker(p.Cfg.CycleInterval)
						defer t.Stop()
						for {
							select {
							case <-p.Ctx.Done():
								return
							case <-t.C:
								res, err := p.Runner.RunCycle(p.Ctx, p.Cfg.Symbol, false)
								if err != nil {
									logger.Error("cycle %s: %v", p.Cfg.Symbol, err)
									continue
								}
								if p.State != nil {
									p.State.SetReady(true)
									p.State.TouchCycle(time.Now())
								}
								logger.Info("cycle %s: %s", p.Cfg.Symbol, res.Status)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
