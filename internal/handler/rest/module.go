package rest

import (
	httpsrv "github.com/carrec/platform/infra/server/http"
	"go.uber.org/fx"
)

// PostModule mounts the post service endpoints.
var PostModule = fx.Module("rest-posts",
	fx.Provide(
		NewPostHandler,
		NewPostOpsHandler,
	),
	fx.Invoke(func(srv *httpsrv.Server, posts *PostHandler, ops *OpsHandler) {
		posts.Routes(srv.Router())
		ops.Routes(srv.Router())
	}),
)

// UserModule mounts the user service endpoints.
var UserModule = fx.Module("rest-users",
	fx.Provide(
		NewUserHandler,
		NewUserOpsHandler,
	),
	fx.Invoke(func(srv *httpsrv.Server, users *UserHandler, ops *OpsHandler) {
		users.Routes(srv.Router())
		ops.Routes(srv.Router())
	}),
)
