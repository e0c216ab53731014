// Package metrics exposes process-level Prometheus metrics for migration
// runs. Counters are global; the status server serves them on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	notesUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laguz_notes_uploaded_total",
		Help: "Notes uploaded and committed to the ledger",
	})
	notesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "laguz_notes_skipped_total",
		Help: "Notes skipped, by reason (already_done, empty, translate_error)",
	}, []string{"reason"})
	notesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laguz_notes_failed_total",
		Help: "Notes that exhausted all upload attempts",
	})
	uploadRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "laguz_upload_retries_total",
		Help: "Upload attempts beyond the first, across all notes",
	})
	workersInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "laguz_workers_in_flight",
		Help: "Note pipelines currently running",
	})
	uploadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "laguz_upload_duration_seconds",
		Help:    "Wall time per successful note upload",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(notesUploaded, notesSkipped, notesFailed,
		uploadRetries, workersInFlight, uploadDuration)
}

func RecordUploaded()             { notesUploaded.Inc() }
func RecordSkipped(reason string) { notesSkipped.WithLabelValues(reason).Inc() }
func RecordFailed()               { notesFailed.Inc() }
func RecordRetry()                { uploadRetries.Inc() }
func WorkerStarted()              { workersInFlight.Inc() }
func WorkerFinished()             { workersInFlight.Dec() }
func ObserveUpload(seconds float64) {
	uploadDuration.Observe(seconds)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
