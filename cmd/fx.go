package cmd

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/webitel/webpush-connection-engine/config"
	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/registry"
	"github.com/webitel/webpush-connection-engine/internal/session"
	"github.com/webitel/webpush-connection-engine/internal/telemetry"
	"github.com/webitel/webpush-connection-engine/internal/transport/httpapi"
	"github.com/webitel/webpush-connection-engine/internal/transport/ws"
	"github.com/webitel/webpush-connection-engine/internal/useragent"
)

// provideRegistry constructs the shared Registry with config-driven
// eviction/idle options. It lives here, not in registry.Module, because
// config imports registry for RegistryOptions and registry cannot
// import config back.
func provideRegistry(cfg *config.Config) *registry.Registry {
	return registry.NewRegistry(cfg.RegistryOptions()...)
}

func provideHTTPServer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger, wsHandler *ws.Handler, apiHandler *httpapi.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/", apiHandler.Router())

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("http server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			provideRegistry,
		),
		fx.NopLogger,

		telemetry.Module,
		config.Module,
		dataplane.Module,
		registry.Module,
		session.Module,
		useragent.Module,
		ws.Module,
		httpapi.Module,

		fx.Invoke(provideHTTPServer),
	)
}
