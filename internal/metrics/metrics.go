// internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the portal's Prometheus collectors. All methods are safe on
// a nil receiver so services can run without instrumentation.
type Metrics struct {
	ApplicationsSubmitted *prometheus.CounterVec
	ApplicationsDecided   *prometheus.CounterVec
	DecisionConflicts     prometheus.Counter
	DashboardDuration     prometheus.Histogram
	DocumentsUploaded     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ApplicationsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certportal_applications_submitted_total",
			Help: "Certificate applications submitted, by certificate type",
		}, []string{"certificate_type"}),
		ApplicationsDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certportal_applications_decided_total",
			Help: "Certificate applications decided, by resulting status",
		}, []string{"status"}),
		DecisionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "certportal_decision_conflicts_total",
			Help: "Decisions rejected because the application was no longer pending",
		}),
		DashboardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certportal_dashboard_summary_duration_seconds",
			Help:    "Duration of dashboard summary aggregation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certportal_documents_uploaded_total",
			Help: "Supporting documents stored, by storage backend",
		}, []string{"backend"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certportal_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementSubmitted(certificateType string) {
	if m == nil {
		return
	}
	m.ApplicationsSubmitted.WithLabelValues(certificateType).Inc()
}

func (m *Metrics) IncrementDecided(status string) {
	if m == nil {
		return
	}
	m.ApplicationsDecided.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementDecisionConflict() {
	if m == nil {
		return
	}
	m.DecisionConflicts.Inc()
}

// ObserveDashboard records the duration since start.
func (m *Metrics) ObserveDashboard(start time.Time) {
	if m == nil {
		return
	}
	m.DashboardDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddDocumentsUploaded(backend string, n int) {
	if m == nil {
		return
	}
	m.DocumentsUploaded.WithLabelValues(backend).Add(float64(n))
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
