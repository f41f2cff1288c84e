// Package metrics records ingestion counters and run latencies.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "concertarchive"

// Recorder holds the ingestion metrics. A nil *Recorder records nothing, so
// callers never need to guard their calls.
type Recorder struct {
	entityTotal *prometheus.CounterVec
	rowTotal    *prometheus.CounterVec
	runTotal    *prometheus.CounterVec

	runDuration *prometheus.HistogramVec
}

// NewRecorder registers the ingestion metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		entityTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "entities_total",
			Help:      "Entity resolutions and program item links by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rowTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Rows processed by result (ok or skipped).",
		}, []string{"result"}),
		runTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by result.",
		}, []string{"result"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Wall time of ingestion runs.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.5,
				1, 5, 10, 30,
				60, 300,
			},
		}, []string{"result"}),
	}
}

// ObserveEntity counts one resolution or link outcome.
func (r *Recorder) ObserveEntity(kind, outcome string) {
	if r == nil {
		return
	}
	r.entityTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveRow counts one processed row.
func (r *Recorder) ObserveRow(result string) {
	if r == nil {
		return
	}
	r.rowTotal.WithLabelValues(result).Inc()
}

// ObserveRun counts a finished run and records how long it took.
func (r *Recorder) ObserveRun(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.runTotal.WithLabelValues(result).Inc()
	r.runDuration.WithLabelValues(result).Observe(d.Seconds())
}

// WriteTextfile dumps everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
