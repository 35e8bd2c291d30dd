// Package metrics exposes Prometheus metrics for the HTTP API and race activity.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "racelog"

// Metrics owns a registry and the collectors recorded into it. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	racesCreated  prometheus.Counter
	racesUpdated  prometheus.Counter
	racesDeleted  prometheus.Counter
	racesImported prometheus.Counter
	statsRequests *prometheus.CounterVec
}

// New creates a Metrics with its own registry, including Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		racesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_created_total",
			Help:      "Total number of races created",
		}),
		racesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_updated_total",
			Help:      "Total number of races updated",
		}),
		racesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_deleted_total",
			Help:      "Total number of races deleted",
		}),
		racesImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "races_imported_total",
			Help:      "Total number of races inserted by bulk import",
		}),
		statsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_requests_total",
			Help:      "Total number of statistics reports served",
		}, []string{"report"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.racesCreated,
		m.racesUpdated,
		m.racesDeleted,
		m.racesImported,
		m.statsRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency keyed by the matched route.
// Handler errors are passed to the Echo error handler here so the recorded
// status is the one the client receives.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil && !c.Response().Committed {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = statusOf(err)
			}

			m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func (m *Metrics) RaceCreated() {
	if m != nil {
		m.racesCreated.Inc()
	}
}

func (m *Metrics) RaceUpdated() {
	if m != nil {
		m.racesUpdated.Inc()
	}
}

func (m *Metrics) RaceDeleted() {
	if m != nil {
		m.racesDeleted.Inc()
	}
}

// RacesImported adds n bulk-imported races.
func (m *Metrics) RacesImported(n int) {
	if m != nil && n > 0 {
		m.racesImported.Add(float64(n))
	}
}

// StatisticsServed counts one report of the given kind, e.g. "range" or "overview".
func (m *Metrics) StatisticsServed(report string) {
	if m != nil {
		m.statsRequests.WithLabelValues(report).Inc()
	}
}
