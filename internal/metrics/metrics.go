// Package metrics owns the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rating outcomes.
const (
	OutcomeInsert = "insert"
	OutcomeUpdate = "update"
	OutcomeError  = "error"
)

// Metrics groups HTTP and domain collectors registered on one registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Ratings         *prometheus.CounterVec
	ProgressEvents  *prometheus.CounterVec
	Conflicts       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		Ratings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnhub_rating_submissions_total",
				Help: "Rating submissions by content kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ProgressEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnhub_progress_events_total",
				Help: "Lesson progress events by outcome",
			},
			[]string{"outcome"},
		),
		Conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "learnhub_version_conflicts_total",
				Help: "Optimistic concurrency conflicts by entity",
			},
			[]string{"entity"},
		),
	}
	reg.MustRegister(m.RequestCounter, m.RequestDuration, m.Ratings, m.ProgressEvents, m.Conflicts)
	return m
}

// ObserveRating counts one rating submission.
func (m *Metrics) ObserveRating(kind, outcome string) {
	if m == nil {
		return
	}
	m.Ratings.WithLabelValues(kind, outcome).Inc()
}

// ObserveProgress counts one progress event. outcome is "completed", "recorded" or "error".
func (m *Metrics) ObserveProgress(outcome string) {
	if m == nil {
		return
	}
	m.ProgressEvents.WithLabelValues(outcome).Inc()
}

// ObserveConflict counts a lost compare-and-swap on entity.
func (m *Metrics) ObserveConflict(entity string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(entity).Inc()
}

// Middleware records request count and latency keyed by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
