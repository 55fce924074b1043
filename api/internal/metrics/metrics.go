// Package metrics holds the Prometheus collectors of the extraction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "condo"

// Result labels for DocumentsTotal.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

type Metrics struct {
	Documents   *prometheus.CounterVec
	Extraction  prometheus.Histogram
	Units       prometheus.Counter
	Ambiguities *prometheus.CounterVec
	Conflicts   *prometheus.CounterVec
	InFlight    prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gives unregistered
// collectors, which is what tests and the CLI want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed, by result.",
		}, []string{"result"}),
		Extraction: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent waiting on the extraction collaborator.",
			Buckets:   []float64{1, 5, 10, 30, 60, 90, 120, 180, 300},
		}),
		Units: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Distinct units emitted after reconciliation.",
		}),
		Ambiguities: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ambiguities_total",
			Help:      "Fields resolved by a default, by kind.",
		}, []string{"kind"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Reconciliation conflicts, by kind.",
		}, []string{"kind"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "extractions_in_flight",
			Help:      "Extraction calls currently outstanding.",
		}),
	}
}

func (m *Metrics) ObserveExtraction(d time.Duration) {
	if m == nil {
		return
	}
	m.Extraction.Observe(d.Seconds())
}

func (m *Metrics) Document(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Documents.WithLabelValues(ResultOK).Inc()
		return
	}
	m.Documents.WithLabelValues(ResultFailed).Inc()
}

func (m *Metrics) AddUnits(n int) {
	if m == nil {
		return
	}
	m.Units.Add(float64(n))
}

func (m *Metrics) Ambiguity(kind string) {
	if m == nil {
		return
	}
	m.Ambiguities.WithLabelValues(kind).Inc()
}

func (m *Metrics) Conflict(kind string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(kind).Inc()
}

// Begin marks an extraction as in flight; call the returned func when it ends.
func (m *Metrics) Begin() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}
