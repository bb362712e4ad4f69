package telemetry

import (
	"context"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"

	metricapi "go.opentelemetry.io/otel/metric"
	logapi "go.opentelemetry.io/otel/log"

	"github.com/webitel/webpush-connection-engine/internal/session"
)

func provideMeterProvider() *metric.MeterProvider {
	return metric.NewMeterProvider()
}

func provideMeter(mp *metric.MeterProvider) metricapi.Meter {
	return mp.Meter("webpush-connection-engine")
}

func provideLoggerProvider() *sdklog.LoggerProvider {
	return sdklog.NewLoggerProvider()
}

// Module wires the OTel SDK providers, the bridged slog logger, and the
// session.Metrics implementation every other package depends on.
var Module = fx.Module(
	"telemetry",
	fx.Provide(
		provideMeterProvider,
		provideMeter,
		provideLoggerProvider,
		fx.Annotate(
			func(lp *sdklog.LoggerProvider) logapi.LoggerProvider { return lp },
		),
		NewLogger,
		fx.Annotate(
			NewMetrics,
			fx.As(new(session.Metrics)),
		),
	),
	fx.Invoke(func(lc fx.Lifecycle, mp *metric.MeterProvider, lp *sdklog.LoggerProvider) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = mp.Shutdown(ctx)
				return lp.Shutdown(ctx)
			},
		})
	}),
)
