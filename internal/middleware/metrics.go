package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores application metrics
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	scans    *prometheus.CounterVec
	issues   prometheus.Histogram
	scripts  *prometheus.CounterVec
	offers   *prometheus.CounterVec
}

// NewMetrics registers collectors on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gdpr_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "gdpr_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
		scans: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_scans_total",
			Help: "Scans by verdict.",
		}, []string{"verdict"}),
		issues: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gdpr_scan_issues",
			Help:    "Issues reported per scan.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		}),
		scripts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_correction_scripts_total",
			Help: "Correction scripts by source.",
		}, []string{"source"}),
		offers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gdpr_offer_emails_total",
			Help: "Offer emails by delivery status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveScan(compliant bool, issues int) {
	verdict := "non_compliant"
	if compliant {
		verdict = "compliant"
	}
	m.scans.WithLabelValues(verdict).Inc()
	m.issues.Observe(float64(issues))
}

func (m *Metrics) ObserveScript(source string) {
	m.scripts.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveOffer(status string) {
	m.offers.WithLabelValues(status).Inc()
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		// route pattern keeps label cardinality bounded
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the registry in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
