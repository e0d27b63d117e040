package pubsub

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

var Module = fx.Module("pubsub",
	fx.Provide(NewProvider),
	fx.Invoke(func(lc fx.Lifecycle, p Provider, logger *slog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				logger.Info("BUS_READY", "driver", p.GetFactory().Driver())
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return p.Close()
			},
		})
	}),
)
