package ws

import (
	httpsrv "github.com/carrec/platform/infra/server/http"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery-ws",
	fx.Provide(NewWSHandler),
	fx.Invoke(func(srv *httpsrv.Server, h *WSHandler) {
		h.Routes(srv.Router())
	}),
)
