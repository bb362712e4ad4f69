package dataplane

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"go.uber.org/fx"
)

// Config is the subset of application configuration the dataplane
// package needs; config.Config builds it through DataplaneConfig.
type Config struct {
	Transport       TransportConfig
	BreakerSettings gobreaker.Settings
}

func provideBridge(cfg Config, publisher message.Publisher) *Bridge {
	return NewBridge(publisher, cfg.Transport.RequestQueue, cfg.BreakerSettings)
}

func provideReplyRouter(bridge *Bridge, subscriber message.Subscriber, cfg Config, logger *slog.Logger) *ReplyRouter {
	return NewReplyRouter(bridge, subscriber, cfg.Transport.ReplyQueue, logger)
}

func providePubSub(cfg Config, wmLogger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	return NewPubSub(cfg.Transport, wmLogger)
}

// Module wires the call bridge, its pub/sub transport, and the reply
// router that feeds completions back into it. Consumers depend on
// *Bridge for the typed RPCs.
var Module = fx.Module(
	"dataplane",

	fx.Provide(
		providePubSub,
		provideBridge,
		provideReplyRouter,
	),

	fx.Invoke(func(lc fx.Lifecycle, router *ReplyRouter) {
		ctx, cancel := context.WithCancel(context.Background())
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := router.Run(ctx); err != nil {
						router.logger.Error("dataplane reply router stopped", "error", err)
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
