package pubsub

import "go.uber.org/fx"

var Module = fx.Module("pubsub-adapter",
	fx.Provide(NewBridge),
)
