package session

import (
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/registry"
)

// Config is the subset of application configuration the session package
// needs.
type Config struct {
	HandshakeTimeout time.Duration
}

// Factory builds a Machine for each newly accepted Transport, sharing
// the process-wide bridge, registry, metrics sink, and UA classifier.
type Factory struct {
	bridge       *dataplane.Bridge
	registry     registry.Registerer
	metrics      Metrics
	uaClassifier UserAgentClassifier
	logger       *slog.Logger
	cfg          Config
}

func NewFactory(
	bridge *dataplane.Bridge,
	reg registry.Registerer,
	metrics Metrics,
	uaClassifier UserAgentClassifier,
	logger *slog.Logger,
	cfg Config,
) *Factory {
	return &Factory{
		bridge:       bridge,
		registry:     reg,
		metrics:      metrics,
		uaClassifier: uaClassifier,
		logger:       logger,
		cfg:          cfg,
	}
}

// New builds a Machine for transport. Callers run it with f.New(t).Run(ctx),
// which blocks until the connection is done.
func (f *Factory) New(transport Transport) *Machine {
	return NewMachine(transport, f.bridge, f.registry, f.metrics, f.uaClassifier, f.logger, f.cfg.HandshakeTimeout)
}

var Module = fx.Module(
	"session",
	fx.Provide(NewFactory),
)
