package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	NotesCreatedTotal   *prometheus.CounterVec // by transcript source
	NotesGeneratedTotal *prometheus.CounterVec // by outcome
	NotesFinalizedTotal prometheus.Counter

	TranscriptionsTotal   *prometheus.CounterVec // by outcome
	TranscriptionDuration prometheus.Histogram
	CompletionDuration    *prometheus.HistogramVec // by operation
	CompletionFailures    *prometheus.CounterVec   // by operation

	AnalysisRunsTotal *prometheus.CounterVec // by method mix
	ChecklistHits     *prometheus.CounterVec // by method

	DBConnections prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		NotesCreatedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "notes_created_total",
			Help:      "Total visit notes created, by transcript source.",
		}, []string{"source"}),

		NotesGeneratedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "notes_generated_total",
			Help:      "SOAP generation attempts by outcome.",
		}, []string{"outcome"}),

		NotesFinalizedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinical",
			Name:      "notes_finalized_total",
			Help:      "Total notes finalized.",
		}),

		TranscriptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "transcription",
			Name:      "requests_total",
			Help:      "Transcription requests by outcome.",
		}, []string{"outcome"}),

		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "transcription",
			Name:      "duration_seconds",
			Help:      "Wall-clock latency of transcription requests.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		CompletionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Latency of completion API calls by operation.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),

		CompletionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "completion",
			Name:      "failures_total",
			Help:      "Completion API failures by operation.",
		}, []string{"operation"}),

		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Checklist analysis runs by mode (hybrid or keyword-only fallback).",
		}, []string{"mode"}),

		ChecklistHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "checklist_hits_total",
			Help:      "Checklist items scored, by scoring method.",
		}, []string{"method"}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
