package discovery

import (
	"context"
	"log/slog"

	"github.com/carrec/platform/config"
	"go.uber.org/fx"
)

// Module registers the instance on start when discovery is enabled. A
// failed registration is logged and the instance keeps serving.
var Module = fx.Module("discovery",
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) error {
		if !cfg.Discovery.Enabled {
			return nil
		}
		r, err := NewConsul(cfg, logger)
		if err != nil {
			return err
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := r.Register(ctx); err != nil {
					logger.Warn("SERVICE_REGISTER_FAILED", "err", err)
				}
				return nil
			},
		})
		return nil
	}),
)
