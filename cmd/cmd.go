package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carrec/platform/config"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

const (
	ServiceName      = "carrec"
	ServiceNamespace = "carrec"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

func Run() error {
	app := &cli.App{
		Name:    ServiceName,
		Usage:   "Car recommendation platform services",
		Version: version,
		Commands: []*cli.Command{
			serverCmd("post-server", "p", "Run the post service with live comment streams", serviceDefaults{name: "post-service", tag: "posts"}, NewPostApp),
			serverCmd("user-server", "u", "Run the user service", serviceDefaults{name: "user-service", tag: "users"}, NewUserApp),
			versionCmd(),
		},
	}

	return app.Run(os.Args)
}

type serviceDefaults struct {
	name string
	tag  string
}

// serverCmd builds a command that loads the configuration, starts the fx
// app built by newApp and blocks until SIGINT or SIGTERM. Arguments after
// "--" are configuration flags:
//
//	carrec post-server --config_file=posts.yaml -- --http.port=8002
func serverCmd(name, alias, usage string, defaults serviceDefaults, newApp func(*config.Config) *fx.App) *cli.Command {
	return &cli.Command{
		Name:    name,
		Aliases: []string{alias},
		Usage:   usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config_file",
				Usage:   "Path to the configuration file",
				EnvVars: []string{config.EnvPrefix + "_CONFIG_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config_file"), c.Args().Slice())
			if err != nil {
				return err
			}
			applyServiceDefaults(cfg, defaults)

			app := newApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout+5*time.Second)
			defer cancel()
			return app.Stop(ctx)
		},
	}
}

// applyServiceDefaults names the process after the command when the
// configuration did not, and gives it a unique instance id.
func applyServiceDefaults(cfg *config.Config, d serviceDefaults) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = d.name
	}
	if len(cfg.Service.Tags) == 0 {
		cfg.Service.Tags = []string{d.tag}
	}
	if cfg.Service.InstanceID == "" {
		cfg.Service.InstanceID = cfg.Service.Name + "-" + uuid.NewString()
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Action: func(c *cli.Context) error {
			slog.Info("build",
				"namespace", ServiceNamespace,
				"version", version,
				"commit", commit,
				"commit_date", commitDate,
				"branch", branch,
				"build_timestamp", buildTimestamp,
			)
			return nil
		},
	}
}
