package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for one replica monitor
type Metrics struct {
	ProbesTotal        *prometheus.CounterVec
	ProbeErrorsTotal   *prometheus.CounterVec
	ProbeDuration      prometheus.Histogram
	ReplicaAlive       prometheus.Gauge
	LastProbeTimestamp prometheus.Gauge
}

// NewMetrics creates the monitor metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer, monitorName string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"monitor": monitorName}

	return &Metrics{
		ProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "pairdb",
				Subsystem:   "replica_monitor",
				Name:        "probes_total",
				Help:        "Total number of completed probe iterations by outcome",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		ProbeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "pairdb",
				Subsystem:   "replica_monitor",
				Name:        "probe_errors_total",
				Help:        "Total number of probe iterations that failed, by error code",
				ConstLabels: labels,
			},
			[]string{"code"},
		),
		ProbeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "pairdb",
			Subsystem:   "replica_monitor",
			Name:        "probe_duration_seconds",
			Help:        "Histogram of probe iteration durations, acquire to release",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}),
		ReplicaAlive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "pairdb",
			Subsystem:   "replica_monitor",
			Name:        "replica_alive",
			Help:        "Latest liveness verdict (1 alive, 0 not alive)",
			ConstLabels: labels,
		}),
		LastProbeTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "pairdb",
			Subsystem:   "replica_monitor",
			Name:        "last_probe_timestamp_seconds",
			Help:        "Unix time of the last completed probe iteration",
			ConstLabels: labels,
		}),
	}
}

// ObserveProbe records one completed probe iteration
func (m *Metrics) ObserveProbe(status string, alive bool, duration time.Duration) {
	m.ProbesTotal.WithLabelValues(status).Inc()
	m.ProbeDuration.Observe(duration.Seconds())
	if alive {
		m.ReplicaAlive.Set(1)
	} else {
		m.ReplicaAlive.Set(0)
	}
	m.LastProbeTimestamp.SetToCurrentTime()
}

// ObserveError records the error code of a failed iteration
func (m *Metrics) ObserveError(code string) {
	m.ProbeErrorsTotal.WithLabelValues(code).Inc()
}
