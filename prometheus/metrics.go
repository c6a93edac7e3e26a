package prometheus

import (
	"time"

	"marketplace-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	LoginCounter        prometheus.Counter
	RegistrationCounter prometheus.CounterVec
	AuthErrorsCounter   prometheus.CounterVec
	ActiveSessionsGauge prometheus.Gauge

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Domain operation metrics
	ProductOperationsCounter prometheus.CounterVec
	CartOperationsCounter    prometheus.CounterVec
	OrdersPlacedCounter      prometheus.Counter
	OrderStatusCounter       prometheus.CounterVec
	ModerationCounter        prometheus.CounterVec
	UploadCounter            prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(cfg *config.Config) {
	// Use metric prefix from configuration
	prefix := cfg.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	LoginCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegistrationCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_registrations_total",
			Help: "Total number of registrations by principal kind",
		},
		[]string{"kind"}, // "user" or "supplier"
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	ActiveSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_sessions",
			Help: "Number of currently active sessions",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ProductOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_product_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	CartOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cart_operations_total",
			Help: "Total number of cart operations",
		},
		[]string{"operation"},
	)

	OrdersPlacedCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_orders_placed_total",
			Help: "Total number of orders placed",
		},
	)

	OrderStatusCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_status_updates_total",
			Help: "Total number of order status updates",
		},
		[]string{"status"},
	)

	ModerationCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_moderation_decisions_total",
			Help: "Total number of moderation decisions",
		},
		[]string{"entity", "decision"}, // entity: "product"/"supplier", decision: "approved"/"rejected"
	)

	UploadCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_uploads_total",
			Help: "Total number of image upload attempts",
		},
		[]string{"result"}, // "success" or "error"
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorsCounter.WithLabelValues(errorType).Inc()
}

// RecordRegistration increments the registration counter for a principal kind
func RecordRegistration(kind string) {
	RegistrationCounter.WithLabelValues(kind).Inc()
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordCartOperation increments the counter for cart operations
func RecordCartOperation(operation string) {
	CartOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordOrderStatus increments the counter for order status updates
func RecordOrderStatus(status string) {
	OrderStatusCounter.WithLabelValues(status).Inc()
}

// RecordModeration increments the counter for moderation decisions
func RecordModeration(entity, decision string) {
	ModerationCounter.WithLabelValues(entity, decision).Inc()
}

// RecordUpload increments the counter for image uploads
func RecordUpload(result string) {
	UploadCounter.WithLabelValues(result).Inc()
}
