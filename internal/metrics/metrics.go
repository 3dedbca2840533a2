// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "equipcheck"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Lifecycle metrics
var (
	ReportsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Inspection reports submitted, by derived disposition",
		},
		[]string{"disposition"},
	)

	ReportsApproved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_approved_total",
			Help:      "Inspection reports countersigned by a supervisor",
		},
	)

	DocumentsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_rendered_total",
			Help:      "PDF documents rendered, by kind",
		},
		[]string{"kind"},
	)

	EvidenceStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evidence_stored_total",
			Help:      "Evidence images stored, by kind",
		},
		[]string{"kind"},
	)

	StoreUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_unavailable_total",
			Help:      "Record store calls that failed because the backend was unreachable",
		},
		[]string{"op"},
	)
)

// Document kinds.
const (
	KindChecklist = "checklist"
	KindSummary   = "summary"
)

// ReportSubmitted records a stored submission.
func ReportSubmitted(disposition string) {
	ReportsSubmitted.WithLabelValues(disposition).Inc()
}

// ReportApproved records a successful PENDING -> APPROVED transition.
func ReportApproved() {
	ReportsApproved.Inc()
}

// DocumentRendered records a rendered PDF.
func DocumentRendered(kind string) {
	DocumentsRendered.WithLabelValues(kind).Inc()
}

// Stored records a normalized evidence upload ("photo" or "signature").
func Stored(kind string) {
	EvidenceStored.WithLabelValues(kind).Inc()
}

// Unavailable records a backend outage observed by op.
func Unavailable(op string) {
	StoreUnavailable.WithLabelValues(op).Inc()
}
