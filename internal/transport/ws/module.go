package ws

import "go.uber.org/fx"

var Module = fx.Module(
	"transport/ws",
	fx.Provide(NewHandler),
)
