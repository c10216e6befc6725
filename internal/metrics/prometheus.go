package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total HTTP requests served
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	// RequestDuration tracks HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "endpoint"},
	)

	// PartnerRequestsTotal tracks calls to the partner API by action and outcome
	PartnerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_requests_total",
			Help: "Total number of partner API calls",
		},
		[]string{"action", "outcome"},
	)

	// PartnerRequestDuration tracks partner API latency
	PartnerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partner_request_duration_seconds",
			Help:    "Partner API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// CircuitBreakerState tracks circuit breaker state (0=closed, 1=open, 2=half-open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "circuit_name"},
	)

	// CircuitBreakerFailures tracks circuit breaker failures
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"service", "circuit_name"},
	)

	// BulkheadActiveRequests tracks active requests in bulkhead
	BulkheadActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bulkhead_active_requests",
			Help: "Number of active requests in bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)

	// BulkheadRejectedRequests tracks rejected requests by bulkhead
	BulkheadRejectedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkhead_rejected_requests_total",
			Help: "Total number of rejected requests by bulkhead",
		},
		[]string{"service", "bulkhead_name"},
	)

	// CatalogPagesFetched counts catalog pages received
	CatalogPagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_pages_fetched_total",
			Help: "Total number of catalog pages fetched",
		},
	)

	// CatalogCuisines tracks the cuisine count of the last merged catalog
	CatalogCuisines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cuisines",
			Help: "Number of unique cuisines in the last merged catalog",
		},
	)

	// CatalogDuplicatesDropped counts cuisines dropped by the merge
	CatalogDuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_duplicate_cuisines_total",
			Help: "Total number of duplicate cuisines dropped while merging pages",
		},
	)

	// BackfillTotal tracks dish detail backfills by outcome
	BackfillTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dish_backfill_total",
			Help: "Total number of dish detail backfills",
		},
		[]string{"outcome"},
	)

	// OrdersTotal tracks total orders by status
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of orders",
		},
		[]string{"status"},
	)

	// PaymentAmount tracks submitted grand totals
	PaymentAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_amount",
			Help:    "Grand totals of paid orders",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000},
		},
	)

	// HistoryAppendsTotal tracks order history writes by outcome
	HistoryAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_history_appends_total",
			Help: "Total number of order history appends",
		},
		[]string{"backend", "outcome"},
	)

	// ChaosFailureRate tracks chaos engineering failure simulations
	ChaosFailureRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chaos_failure_enabled",
			Help: "Whether chaos failure mode is enabled (1=enabled, 0=disabled)",
		},
		[]string{"service"},
	)

	// ChaosSlowMode tracks slow response simulation
	ChaosSlowMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chaos_slow_mode_enabled",
			Help: "Whether chaos slow mode is enabled (1=enabled, 0=disabled)",
		},
		[]string{"service"},
	)
)

// ObservePartnerCall records one partner API call
func ObservePartnerCall(action string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	PartnerRequestsTotal.WithLabelValues(action, outcome).Inc()
	PartnerRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// PrometheusMiddleware creates a Gin middleware for automatic metrics collection
func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		RequestsTotal.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()

		RequestDuration.WithLabelValues(
			serviceName,
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}
