package useragent

import (
	"go.uber.org/fx"

	"github.com/webitel/webpush-connection-engine/internal/session"
)

var Module = fx.Module(
	"useragent",
	fx.Provide(
		fx.Annotate(
			NewClassifier,
			fx.As(new(session.UserAgentClassifier)),
		),
	),
)
