package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studytracker-backend/internal/models"
)

// Metrics holds Prometheus metrics for the service. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	EventCounter    *prometheus.CounterVec
	OutcomeCounter  *prometheus.CounterVec
	TimeSpent       prometheus.Counter

	registry *prometheus.Registry
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		EventCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "questions",
				Name:      "events_total",
				Help:      "Question lifecycle events by type",
			},
			[]string{"type"},
		),
		OutcomeCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "questions",
				Name:      "attempts_total",
				Help:      "Recorded attempts by result",
			},
			[]string{"result"},
		),
		TimeSpent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "questions",
				Name:      "time_spent_minutes_total",
				Help:      "Minutes spent across all recorded attempts",
			},
		),
		registry: reg,
	}
}

// Middleware records count and latency per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
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

// Publish counts engine events; completed events also count the outcome of
// the attempt just recorded.
func (m *Metrics) Publish(_ context.Context, evt models.Event) error {
	m.EventCounter.WithLabelValues(string(evt.Type)).Inc()

	if evt.Type == models.EventQuestionCompleted && evt.Question != nil && len(evt.Question.Attempts) > 0 {
		last := evt.Question.Attempts[len(evt.Question.Attempts)-1]
		m.OutcomeCounter.WithLabelValues(string(last.Result)).Inc()
		m.TimeSpent.Add(last.TimeSpent)
	}
	return nil
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
