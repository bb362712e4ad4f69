package config

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/fx"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/session"
)

// Module exposes the decoded Config and its per-package adapter views so
// other modules can depend on just the slice they need.
var Module = fx.Module(
	"config",
	fx.Provide(
		func(cfg *Config) dataplane.Config { return cfg.DataplaneConfig() },
		func(cfg *Config) session.Config { return cfg.SessionConfig() },
		func(logger *slog.Logger) watermill.LoggerAdapter { return watermill.NewSlogLogger(logger) },
	),
)
