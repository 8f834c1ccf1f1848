package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector manages the Prometheus metrics of the subgraph
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeRequests      prometheus.Gauge
	operationsTotal     *prometheus.CounterVec
	schemaLookupsTotal  *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry. The service
// name prefixes every metric, with hyphens replaced for Prometheus.
func NewCollector(serviceName string) *Collector {
	prefix := strings.ReplaceAll(serviceName, "-", "_")

	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_active_requests",
				Help: "Number of requests being served",
			},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_graphql_fields_total",
				Help: "Total number of top-level GraphQL fields resolved, by field and outcome",
			},
			[]string{"field", "outcome"},
		),
		schemaLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_schema_lookups_total",
				Help: "Total number of schema definition lookups over REST, by result",
			},
			[]string{"result"},
		),
	}

	c.registry.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.activeRequests,
		c.operationsTotal,
		c.schemaLookupsTotal,
	)
	return c
}

// Middleware returns gin middleware that records request metrics
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		c.activeRequests.Inc()
		defer c.activeRequests.Dec()

		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		method := ctx.Request.Method
		status := strconv.Itoa(ctx.Writer.Status())

		c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// ObserveFields counts the top-level fields of one executed operation
func (c *Collector) ObserveFields(fields []string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	for _, f := range fields {
		c.operationsTotal.WithLabelValues(f, outcome).Inc()
	}
}

// ObserveSchemaLookup counts a REST schema lookup
func (c *Collector) ObserveSchemaLookup(found bool) {
	result := "hit"
	if !found {
		result = "miss"
	}
	c.schemaLookupsTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus exposition handler for this collector
func (c *Collector) Handler() gin.HandlerFunc {
	var handler http.Handler = promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
