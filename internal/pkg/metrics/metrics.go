package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotmap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spotmap",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Spot metrics
	SpotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "spots",
		Name:      "created_total",
		Help:      "Total spots created",
	})

	SpotsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "spots",
		Name:      "destroyed_total",
		Help:      "Total spots soft-deleted",
	})

	NearbyQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "spots",
		Name:      "nearby_queries_total",
		Help:      "Nearby queries by outcome (found, no_content)",
	}, []string{"outcome"})

	// Tag metrics
	TagsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "tags",
		Name:      "created_total",
		Help:      "Total tags created by attach",
	})

	TagsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "tags",
		Name:      "collected_total",
		Help:      "Total orphan tags soft-deleted",
	}, []string{"source"})

	// Geocoding metrics
	GeocodeResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "geocoder",
		Name:      "results_total",
		Help:      "Reverse geocoding results by outcome (ok, timeout, error, cached)",
	}, []string{"outcome"})

	GeocodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "spotmap",
		Subsystem: "geocoder",
		Name:      "request_duration_seconds",
		Help:      "Duration of reverse geocoding provider calls",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Spot events published by kind and result",
	}, []string{"kind", "result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotmap",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spotmap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotmap",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotmap",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "spotmap",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies pool gauges from a pgxpool.Stat.
// The stat is taken as an interface so this package does not import pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
