package clientdi

import (
	"context"

	"github.com/carrec/platform/infra/client/postsvc"
	"github.com/carrec/platform/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"clients",

	// [CONSTRUCTOR] Provides the resilient post service client
	fx.Provide(
		postsvc.New,
		fx.Annotate(
			func(c *postsvc.Client) *postsvc.Client { return c },
			fx.As(new(service.PostClient)),
		),
	),

	// [LIFECYCLE] Releases pooled connections on app shutdown
	fx.Invoke(func(lc fx.Lifecycle, client *postsvc.Client) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}),
)
