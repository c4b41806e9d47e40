package monitor

import (
	"github.com/devrev/pairdb/replica-monitor/internal/metrics"
	"github.com/devrev/pairdb/replica-monitor/internal/probe"
	"go.uber.org/zap"
)

// Option configures a Monitor at construction
type Option func(*Monitor)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithVerbose includes the raw replication properties and the full error
// chain in failure records instead of a one-line message.
func WithVerbose(verbose bool) Option {
	return func(m *Monitor) {
		m.verbose = verbose
	}
}

// WithMetrics records every completed iteration in m
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Monitor) {
		m.metrics = mt
	}
}

// WithProbe replaces the default replication probe
func WithProbe(p *probe.Probe) Option {
	return func(m *Monitor) {
		if p != nil {
			m.probe = p
		}
	}
}

// WithName names the monitor in logs, metrics and the health surface.
// Defaults to a random UUID.
func WithName(name string) Option {
	return func(m *Monitor) {
		if name != "" {
			m.name = name
		}
	}
}
