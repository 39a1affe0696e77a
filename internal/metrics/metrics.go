// Package metrics exposes Prometheus instrumentation for the StagePass server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagepass/stagepass-server/internal/genre"
)

const namespace = "stagepass"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	treeBuilds       prometheus.Histogram
	treeNodes        prometheus.Gauge
	sessionsRecorded prometheus.Counter
}

// New creates the collectors and registers them, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		treeBuilds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "genre",
			Name:      "tree_build_seconds",
			Help:      "Time spent building a genre tree on a cache miss.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		treeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "genre",
			Name:      "tree_nodes",
			Help:      "Node count of the most recently built genre tree.",
		}),
		sessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "sessions_recorded_total",
			Help:      "Visitor sessions stored.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.treeBuilds,
		m.treeNodes,
		m.sessionsRecorded,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentGenreCache exports cache counters and observes tree builds.
func (m *Metrics) InstrumentGenreCache(c *genre.Cache) error {
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "genre",
		Name:      "cache_hits_total",
		Help:      "Genre tree lookups served from the cache.",
	}, func() float64 { return float64(c.Stats().Hits) })
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "genre",
		Name:      "cache_misses_total",
		Help:      "Genre tree lookups that required a build.",
	}, func() float64 { return float64(c.Stats().Misses) })
	size := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "genre",
		Name:      "cache_entries",
		Help:      "Genre trees currently cached.",
	}, func() float64 { return float64(c.Stats().Size) })

	for _, col := range []prometheus.Collector{hits, misses, size} {
		if err := m.registry.Register(col); err != nil {
			return err
		}
	}

	c.OnBuild(func(nodes int, took time.Duration) {
		m.treeBuilds.Observe(took.Seconds())
		m.treeNodes.Set(float64(nodes))
	})
	return nil
}

// SessionRecorded counts one stored analytics session.
func (m *Metrics) SessionRecorded() {
	m.sessionsRecorded.Inc()
}

// Middleware records request latency labelled by the matched chi route, so
// /api/v1/events/{id} is one series no matter how many IDs are requested.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

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
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
