package service

import (
	"log/slog"

	"go.uber.org/fx"
)

// PostModule wires the post service: live comment stream, ingestion and
// post CRUD. Storage, bus and registry come from their own modules.
var PostModule = fx.Module(
	"post-service",

	fx.Provide(
		fx.Annotate(
			NewDeliveryService,
			fx.As(new(Deliverer)),
		),
		fx.Annotate(
			NewCommentService,
			fx.As(new(Ingester)),
		),
		fx.Annotate(
			NewPostService,
			fx.As(new(Poster)),
		),
		NewCommentStream,
	),

	fx.Invoke(func(lc fx.Lifecycle, s *CommentStream) {
		lc.Append(fx.Hook{
			OnStart: s.Start,
			OnStop:  s.Stop,
		})
	}),
)

// UserModule wires the user service.
var UserModule = fx.Module(
	"user-service",

	fx.Provide(
		fx.Annotate(
			NewAuthService,
			fx.As(new(Auther)),
		),
		fx.Annotate(
			NewPostsResolver,
			fx.As(new(PostsResolver)),
		),
		fx.Annotate(
			NewUserService,
			fx.As(new(Userer)),
		),
	),

	// [DECORATION_LAYER] Intercept the resolver to add cross-cutting concerns
	fx.Decorate(func(orig PostsResolver, logger *slog.Logger) PostsResolver {
		return NewResolverMiddleware(orig, logger)
	}),
)
