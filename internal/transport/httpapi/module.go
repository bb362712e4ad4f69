package httpapi

import "go.uber.org/fx"

var Module = fx.Module(
	"transport/httpapi",
	fx.Provide(NewHandler),
)
