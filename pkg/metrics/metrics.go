package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "worknomads"

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"service", "method", "endpoint"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Registrations, logins and refreshes by outcome",
		},
		[]string{"action", "status"},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"file_type", "status"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"file_type"},
	)

	ContentMismatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_content_mismatch_total",
			Help:      "Uploads whose sniffed content type disagrees with the declared one",
		},
		[]string{"file_type"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_proxy_requests_total",
			Help:      "Requests forwarded by the gateway, by upstream and outcome",
		},
		[]string{"upstream", "status"},
	)
)

func RecordAuth(action, status string) {
	AuthEventsTotal.WithLabelValues(action, status).Inc()
}

func RecordUpload(fileType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(fileType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(fileType).Add(float64(bytes))
	}
}

func RecordContentMismatch(fileType string) {
	ContentMismatchTotal.WithLabelValues(fileType).Inc()
}

func RecordStorage(backend, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}

// RecordProxy counts a forwarded request. status is the upstream response
// code, or "unavailable" when the upstream could not be reached.
func RecordProxy(upstream, status string) {
	ProxyRequestsTotal.WithLabelValues(upstream, status).Inc()
}

// Middleware records request count and latency labelled by route template.
func Middleware(service string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			method := c.Request().Method

			RequestsTotal.WithLabelValues(service, method, endpoint, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(service, method, endpoint).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
