package registry

import "go.uber.org/fx"

// Module wires the Registerer interface onto whatever *Registry the
// application provides (see cmd/fx.go, which constructs it with
// config-driven Options). It does not construct *Registry itself so
// callers remain free to pass Options.
var Module = fx.Module("registry",
	fx.Provide(
		fx.Annotate(
			func(r *Registry) Registerer { return r },
			fx.As(new(Registerer)),
		),
	),
)
