package prometheus

import (
	"net/http"
	"time"

	"github.com/Queneri/catalogotefi/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Catalog metrics
	CatalogOperationsCounter *prometheus.CounterVec
	CatalogProductsGauge     *prometheus.GaugeVec
	BulkPriceProductsCounter *prometheus.CounterVec

	// Export metrics
	ExportsCounter *prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration.
// Until it runs every recording helper is a no-op.
func InitMetrics(config *config.Config) {
	initMetrics(config.Metrics.Prefix, prometheus.DefaultRegisterer)
}

func initMetrics(prefix string, reg prometheus.Registerer) {
	factory := promauto.With(reg)

	// HTTP request metrics
	HttpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"kind"},
	)

	AuthErrorsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		},
		[]string{"reason"},
	)

	// Database operation metrics
	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Catalog metrics
	CatalogOperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_catalog_operations_total",
			Help: "Total number of catalog operations by outcome",
		},
		[]string{"brand", "operation", "outcome"},
	)

	CatalogProductsGauge = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_catalog_products",
			Help: "Number of products held in memory per brand",
		},
		[]string{"brand"},
	)

	BulkPriceProductsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_bulk_price_products_total",
			Help: "Products repriced by bulk price changes",
		},
		[]string{"brand", "direction"},
	)

	// Export metrics
	ExportsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_exports_total",
			Help: "Total number of catalog exports",
		},
		[]string{"format", "outcome"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthAttempt increments the counter for login/register attempts
func RecordAuthAttempt(kind string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(kind).Inc()
	}
}

// RecordAuthError increments the counter for authentication failures
func RecordAuthError(reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordCatalogOperation increments the counter for catalog operations
func RecordCatalogOperation(brand, operation, outcome string) {
	if CatalogOperationsCounter != nil {
		CatalogOperationsCounter.WithLabelValues(brand, operation, outcome).Inc()
	}
}

// SetCatalogSize updates the gauge of products held for brand
func SetCatalogSize(brand string, count int) {
	if CatalogProductsGauge != nil {
		CatalogProductsGauge.WithLabelValues(brand).Set(float64(count))
	}
}

// RecordBulkPrice adds the number of products repriced by a bulk change
func RecordBulkPrice(brand, direction string, count int) {
	if BulkPriceProductsCounter != nil {
		BulkPriceProductsCounter.WithLabelValues(brand, direction).Add(float64(count))
	}
}

// RecordExport increments the counter for exports
func RecordExport(format, outcome string) {
	if ExportsCounter != nil {
		ExportsCounter.WithLabelValues(format, outcome).Inc()
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
