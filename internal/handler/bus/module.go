package bus

import (
	"github.com/thejerf/suture/v4"
	"go.uber.org/fx"
)

var Module = fx.Module("bus-handler",
	fx.Provide(
		NewRelayHandler,
		NewListener,
		// The comment stream supervises the listener.
		func(l *Listener) suture.Service { return l },
	),
)
