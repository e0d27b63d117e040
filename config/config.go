package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CARREC"

// Config is shared by the post and the user service. Each binary reads the
// sections it needs.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Bus       BusConfig       `mapstructure:"bus"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Gate      GateConfig      `mapstructure:"gate"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`

	// LogLevel is shared with the slog handler so a config file change can
	// raise or lower verbosity without a restart.
	LogLevel *slog.LevelVar `mapstructure:"-"`
}

type ServiceConfig struct {
	Name       string   `mapstructure:"name"`
	InstanceID string   `mapstructure:"instance_id"`
	Address    string   `mapstructure:"address"`
	Tags       []string `mapstructure:"tags"`
}

type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TaskTimeout     time.Duration `mapstructure:"task_timeout"`
	RateLimit       int           `mapstructure:"rate_limit"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type BusConfig struct {
	// Driver is one of "memory", "amqp" or "nats".
	Driver        string        `mapstructure:"driver"`
	URL           string        `mapstructure:"url"`
	Topic         string        `mapstructure:"topic"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
}

type StreamConfig struct {
	ConnBuffer     int           `mapstructure:"conn_buffer"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	// DedupWindow > 0 enables per-connection suppression of already
	// delivered event ids.
	DedupWindow int `mapstructure:"dedup_window"`
}

type GateConfig struct {
	ListPosts int `mapstructure:"list_posts"`
	UserPosts int `mapstructure:"user_posts"`
	Process   int `mapstructure:"process"`
	// ProcessDuration is the simulated work of GET /process.
	ProcessDuration time.Duration `mapstructure:"process_duration"`
}

type DiscoveryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ConsulAddr string `mapstructure:"consul_addr"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type UpstreamConfig struct {
	PostServiceURL string        `mapstructure:"post_service_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Flags declares every key with its default. Values left unset on the
// command line fall through to env, then to the config file, then here.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("carrec", pflag.ContinueOnError)

	fs.String("service.name", "", "service name used for registration (defaults to the command)")
	fs.String("service.instance_id", "", "unique instance id (generated when empty)")
	fs.String("service.address", "localhost", "address advertised to the registry")
	fs.StringSlice("service.tags", nil, "registry tags")

	fs.String("http.host", "0.0.0.0", "listen host")
	fs.Int("http.port", 8001, "listen port")
	fs.Duration("http.read_timeout", 15*time.Second, "http read timeout")
	fs.Duration("http.write_timeout", 15*time.Second, "http write timeout")
	fs.Duration("http.shutdown_timeout", 10*time.Second, "graceful shutdown timeout")
	fs.Duration("http.task_timeout", 3*time.Second, "timeout of write endpoints")
	fs.Int("http.rate_limit", 600, "requests per minute per client ip (0 disables)")
	fs.StringSlice("http.allowed_origins", []string{"*"}, "CORS allowed origins")

	fs.String("database.dsn", "file:carrec.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", "sqlite dsn")

	fs.String("bus.driver", "memory", "message bus driver: memory, amqp or nats")
	fs.String("bus.url", "", "message bus url")
	fs.String("bus.topic", "comments_channel", "comment channel name")
	fs.Duration("bus.reconnect_wait", 2*time.Second, "bus reconnect wait")
	fs.Int("bus.max_reconnects", -1, "bus max reconnects (-1 forever)")

	fs.Int("stream.conn_buffer", 256, "per connection outbound buffer")
	fs.Duration("stream.write_wait", 10*time.Second, "websocket write deadline")
	fs.Duration("stream.pong_wait", 60*time.Second, "websocket pong deadline")
	fs.Int64("stream.max_message_size", 64*1024, "max inbound websocket frame")
	fs.Int("stream.dedup_window", 0, "per connection dedup window (0 disables)")

	fs.Int("gate.list_posts", 10, "concurrent GET /api/posts")
	fs.Int("gate.user_posts", 10, "concurrent GET /api/users/{id}/posts")
	fs.Int("gate.process", 2, "concurrent GET /process")
	fs.Duration("gate.process_duration", 5*time.Second, "simulated work of GET /process")

	fs.Bool("discovery.enabled", false, "register with consul on start")
	fs.String("discovery.consul_addr", "consul:8500", "consul agent address")

	fs.String("auth.jwt_secret", "change-me", "HS256 signing secret")
	fs.Duration("auth.token_ttl", 30*time.Minute, "access token lifetime")

	fs.String("upstream.post_service_url", "http://localhost:8001", "post service base url")
	fs.Duration("upstream.timeout", 5*time.Second, "post service call timeout")
	fs.Duration("upstream.breaker_timeout", 30*time.Second, "circuit breaker open period")

	fs.String("log.level", "info", "log level")
	fs.String("log.format", "json", "log format: json or text")

	fs.Bool("tracing.enabled", false, "enable tracing")
	fs.Float64("tracing.sample_ratio", 1.0, "trace sample ratio")

	return fs
}

// LoadConfig builds the configuration from flags, CARREC_* env variables and
// an optional YAML file. When a file is used it is watched and log level
// changes are applied on the fly.
func LoadConfig(configFile string, args []string) (*Config, error) {
	v := viper.New()

	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{LogLevel: new(slog.LevelVar)}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel.Set(ParseLevel(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			level := ParseLevel(v.GetString("log.level"))
			cfg.LogLevel.Set(level)
			slog.Info("CONFIG_RELOADED", "file", e.Name, "op", e.Op.String(), "log_level", level.String())
		})
		v.WatchConfig()
	}

	return cfg, nil
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Bus.Driver {
	case "memory", "amqp", "nats":
	default:
		return fmt.Errorf("config: unknown bus driver %q", c.Bus.Driver)
	}
	if c.Bus.Driver != "memory" && c.Bus.URL == "" {
		return fmt.Errorf("config: bus.url is required for driver %q", c.Bus.Driver)
	}
	if c.Bus.Topic == "" {
		return fmt.Errorf("config: bus.topic is empty")
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("config: invalid http.port %d", c.HTTP.Port)
	}
	if c.Stream.ConnBuffer <= 0 {
		return fmt.Errorf("config: stream.conn_buffer must be positive")
	}
	if c.Gate.ListPosts <= 0 || c.Gate.UserPosts <= 0 || c.Gate.Process <= 0 {
		return fmt.Errorf("config: gate capacities must be positive")
	}
	return nil
}

// ParseLevel maps a textual level to slog, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
