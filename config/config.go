package config

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sony/gobreaker"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/registry"
	"github.com/webitel/webpush-connection-engine/internal/session"
)

// Config is the whole process's static configuration, loaded once at
// startup from file/env/flags via viper.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`

	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`

	DataPlane struct {
		Backend      string `mapstructure:"backend"`
		AMQPURI      string `mapstructure:"amqp_uri"`
		RequestQueue string `mapstructure:"request_queue"`
		ReplyQueue   string `mapstructure:"reply_queue"`
	} `mapstructure:"dataplane"`

	Breaker struct {
		MaxRequests uint32        `mapstructure:"max_requests"`
		Interval    time.Duration `mapstructure:"interval"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"breaker"`

	Registry struct {
		EvictionInterval time.Duration `mapstructure:"eviction_interval"`
		IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"registry"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("handshake_timeout", 10*time.Second)
	v.SetDefault("dataplane.backend", "inprocess")
	v.SetDefault("dataplane.request_queue", "webpush.requests")
	v.SetDefault("dataplane.reply_queue", "webpush.replies")
	v.SetDefault("breaker.max_requests", uint32(1))
	v.SetDefault("breaker.interval", 0)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("registry.eviction_interval", time.Minute)
	v.SetDefault("registry.idle_timeout", 5*time.Minute)
}

// Load reads configuration from configFile (if non-empty), environment
// variables prefixed WEBPUSH_, and pflag command-line flags, in that
// ascending order of precedence. It returns a live *viper.Viper so
// callers can attach a hot-reload watch, plus the decoded Config.
func Load(configFile string, flags *pflag.FlagSet) (*viper.Viper, *Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("webpush")
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// WatchAndReload installs a fsnotify-backed watch (via viper.WatchConfig)
// and invokes onChange with the freshly decoded Config whenever the
// underlying file changes.
func WatchAndReload(v *viper.Viper, onChange func(*Config)) {
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// DataplaneConfig adapts this package's shape to dataplane.Config.
func (c *Config) DataplaneConfig() dataplane.Config {
	return dataplane.Config{
		Transport: dataplane.TransportConfig{
			Backend:      c.DataPlane.Backend,
			AMQPURI:      c.DataPlane.AMQPURI,
			RequestQueue: c.DataPlane.RequestQueue,
			ReplyQueue:   c.DataPlane.ReplyQueue,
		},
		BreakerSettings: gobreaker.Settings{
			Name:        "dataplane",
			MaxRequests: c.Breaker.MaxRequests,
			Interval:    c.Breaker.Interval,
			Timeout:     c.Breaker.Timeout,
		},
	}
}

// SessionConfig adapts this package's shape to session.Config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{HandshakeTimeout: c.HandshakeTimeout}
}

// RegistryOptions adapts this package's shape to registry.Option values.
func (c *Config) RegistryOptions() []registry.Option {
	return []registry.Option{
		registry.WithEvictionInterval(c.Registry.EvictionInterval),
		registry.WithIdleTimeout(c.Registry.IdleTimeout),
	}
}
