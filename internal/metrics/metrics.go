// Package metrics exposes Prometheus counters for HTTP traffic and the
// business events of the field-force workflow.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fieldforce"

// Metrics owns a private registry so tests can create as many as they like.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	punches            *prometheus.CounterVec
	expenseTransitions *prometheus.CounterVec
	planTransitions    *prometheus.CounterVec
	stockMoved         *prometheus.CounterVec
	visits             *prometheus.CounterVec
	gpsRejections      *prometheus.CounterVec
	remindersSent      prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		punches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_punches_total",
			Help:      "Attendance punches by type and whether a territory matched.",
		}, []string{"type", "matched"}),
		expenseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_transitions_total",
			Help:      "Expense sheet workflow transitions by action and resulting status.",
		}, []string{"action", "status"}),
		planTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tour_plan_transitions_total",
			Help:      "Tour plan workflow transitions by action and resulting status.",
		}, []string{"action", "status"}),
		stockMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_moved_total",
			Help:      "Inventory units moved by transaction type.",
		}, []string{"type"}),
		visits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_total",
			Help:      "Recorded customer visits by verification outcome.",
		}, []string{"verification"}),
		gpsRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gps_rejections_total",
			Help:      "Fixes refused before matching, by use and error kind.",
		}, []string{"use", "kind"}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approval_reminders_total",
			Help:      "Approval reminder notifications created.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.punches,
		m.expenseTransitions,
		m.planTransitions,
		m.stockMoved,
		m.visits,
		m.gpsRejections,
		m.remindersSent,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware counts requests by chi route pattern, so ids in URLs do not
// explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObservePunch records an attendance punch.
func (m *Metrics) ObservePunch(punchType string, matched bool) {
	if m == nil {
		return
	}
	m.punches.WithLabelValues(punchType, strconv.FormatBool(matched)).Inc()
}

// ObserveTransition records a sheet workflow step.
func (m *Metrics) ObserveTransition(action, status string) {
	if m == nil {
		return
	}
	m.expenseTransitions.WithLabelValues(action, status).Inc()
}

// ObservePlanTransition records a tour plan workflow step.
func (m *Metrics) ObservePlanTransition(action, status string) {
	if m == nil {
		return
	}
	m.planTransitions.WithLabelValues(action, status).Inc()
}

// AddStockMoved records units issued, returned or handed to doctors.
func (m *Metrics) AddStockMoved(txType string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.stockMoved.WithLabelValues(txType).Add(float64(units))
}

// ObserveVisit records a visit's verification outcome.
func (m *Metrics) ObserveVisit(verification string) {
	if m == nil {
		return
	}
	m.visits.WithLabelValues(verification).Inc()
}

// ObserveGPSRejection records a refused fix.
func (m *Metrics) ObserveGPSRejection(use, kind string) {
	if m == nil {
		return
	}
	m.gpsRejections.WithLabelValues(use, kind).Inc()
}

// AddReminders records reminder notifications created by the cron job.
func (m *Metrics) AddReminders(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.remindersSent.Add(float64(n))
}
