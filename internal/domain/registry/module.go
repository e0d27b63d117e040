package registry

import (
	"log/slog"

	"github.com/carrec/platform/config"
	"go.uber.org/fx"
)

// Module provides the Hub. Its shutdown is driven by the comment stream
// once the relay has stopped feeding it.
var Module = fx.Module("registry",
	fx.Provide(
		// [CLEAN_INJECTION] Configure Hub using Functional Options
		func(cfg *config.Config, logger *slog.Logger) *Hub {
			return NewHub(
				WithConnBuffer(cfg.Stream.ConnBuffer),
				WithDedupWindow(cfg.Stream.DedupWindow),
				WithInstanceID(cfg.Service.InstanceID),
				WithLogger(logger.With("component", "registry")),
			)
		},
		func(h *Hub) Hubber { return h },
	),
)
