package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/carrec/platform/config"
	clientdi "github.com/carrec/platform/infra/client/di"
	"github.com/carrec/platform/infra/discovery"
	infrapubsub "github.com/carrec/platform/infra/pubsub"
	httpsrv "github.com/carrec/platform/infra/server/http"
	"github.com/carrec/platform/infra/storage/sqlite"
	"github.com/carrec/platform/internal/adapter/pubsub"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/carrec/platform/internal/handler/bus"
	"github.com/carrec/platform/internal/handler/rest"
	"github.com/carrec/platform/internal/handler/ws"
	"github.com/carrec/platform/internal/service"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// PostAppOptions assembles the post service: CRUD, live comment streams and
// the relay between instances.
func PostAppOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		commonOptions(cfg),
		infrapubsub.Module,
		pubsub.Module,
		registry.Module,
		bus.Module,
		service.PostModule,
		rest.PostModule,
		ws.Module,
	)
}

// UserAppOptions assembles the user service.
func UserAppOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		commonOptions(cfg),
		clientdi.Module,
		service.UserModule,
		rest.UserModule,
	)
}

func NewPostApp(cfg *config.Config) *fx.App { return fx.New(PostAppOptions(cfg)) }
func NewUserApp(cfg *config.Config) *fx.App { return fx.New(UserAppOptions(cfg)) }

func commonOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideTracer,
		),
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l.With("component", "fx")}
		}),
		sqlite.Module,
		fx.Provide(
			fx.Annotate(
				func(s *sqlite.Store) *sqlite.Store { return s },
				fx.As(new(service.CommentStore)),
				fx.As(new(service.PostStore)),
				fx.As(new(service.UserStore)),
			),
		),
		httpsrv.Module,
		discovery.Module,
	)
}

func ProvideLogger(cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel
	if level == nil {
		level = new(slog.LevelVar)
		level.Set(config.ParseLevel(cfg.Log.Level))
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Log.Format == "text" {
		h = slog.NewTextHandler(os.Stderr, opts)
	} else {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(h).With(
		"service", cfg.Service.Name,
		"instance_id", cfg.Service.InstanceID,
	)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger.With("component", "watermill"))
}

// ProvideTracer installs the global tracer provider. Spans carry the trace
// id that the bus propagates in message metadata.
func ProvideTracer(lc fx.Lifecycle, cfg *config.Config) trace.Tracer {
	if !cfg.Tracing.Enabled {
		return noop.NewTracerProvider().Tracer(cfg.Service.Name)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp.Tracer(cfg.Service.Name)
}
