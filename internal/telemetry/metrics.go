package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
)

// Metrics implements session.Metrics over an OTel Meter, exposing the
// named counters and the one timing the connection state machine
// emits. Emission failures are swallowed — a broken metrics pipe must
// never take down a connection.
type Metrics struct {
	logger *slog.Logger

	counters map[string]metric.Int64Counter
	lifespan metric.Int64Histogram
}

// counterNames is the closed set of counters the session package emits
// to; anything else is a programming error, not a new metric to add on
// the fly.
var counterNames = []string{
	"ua.notification.topic",
	"ua.message_data",
	"ua.command.ack",
	"ua.command.nack",
}

func NewMetrics(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	m := &Metrics{logger: logger, counters: make(map[string]metric.Int64Counter, len(counterNames))}

	for _, name := range counterNames {
		c, err := meter.Int64Counter(name)
		if err != nil {
			return nil, err
		}
		m.counters[name] = c
	}

	hist, err := meter.Int64Histogram("ua.connection.lifespan", metric.WithUnit("us"))
	if err != nil {
		return nil, err
	}
	m.lifespan = hist

	return m, nil
}

func (m *Metrics) IncrCounter(name string, delta int64) {
	c, ok := m.counters[name]
	if !ok {
		m.logger.Warn("unknown counter", "name", name)
		return
	}
	c.Add(context.Background(), delta)
}

func (m *Metrics) ObserveLifespanMicros(micros int64) {
	m.lifespan.Record(context.Background(), micros)
}
