package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"trimlcov/internal/model"
)

// Metrics counts filter activity on a private registry so a run can be
// exported as a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	recordsTotal      *prometheus.CounterVec
	suppressedTotal   *prometheus.CounterVec
	sourceFilesLoaded prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimlcov_records_total",
				Help: "Tracefile records read, by record kind",
			},
			[]string{"kind"},
		),
		suppressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimlcov_records_suppressed_total",
				Help: "Coverage records dropped, by record kind and matching keyword",
			},
			[]string{"kind", "keyword"},
		),
		sourceFilesLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trimlcov_source_files_loaded_total",
				Help: "Source files read for SF records",
			},
		),
	}
	m.registry.MustRegister(m.recordsTotal, m.suppressedTotal, m.sourceFilesLoaded)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordSeen(kind model.RecordKind) {
	m.recordsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) RecordSuppressed(kind model.RecordKind, keyword string) {
	m.suppressedTotal.WithLabelValues(kind.String(), keyword).Inc()
}

func (m *Metrics) SourceLoaded(string, int) {
	m.sourceFilesLoaded.Inc()
}

// WriteTextfile writes all counters in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
