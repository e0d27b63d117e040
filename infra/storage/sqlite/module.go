package sqlite

import (
	"context"
	"log/slog"

	"github.com/carrec/platform/config"
	"go.uber.org/fx"
)

var Module = fx.Module("sqlite",
	fx.Provide(func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*Store, error) {
		s, err := Open(context.Background(), cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Info("STORE_CLOSING")
				return s.Close()
			},
		})
		return s, nil
	}),
)
