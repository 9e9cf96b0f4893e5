// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idfportal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idfportal_http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// Table editing
	TableMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idfportal_table_mutations_total",
			Help: "Table mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Devices
	DevicesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idfportal_devices_imported_total",
			Help: "Devices stored from CSV imports and manual creation",
		},
	)

	DeviceRowsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idfportal_device_rows_rejected_total",
			Help: "Malformed CSV rows skipped during device imports",
		},
	)

	// Uploads
	UploadsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idfportal_uploads_active",
			Help: "Uploads currently holding a limiter slot",
		},
	)

	UploadsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idfportal_uploads_rejected_total",
			Help: "Uploads rejected because no slot became free in time",
		},
	)

	AssetBytesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idfportal_asset_bytes_stored_total",
			Help: "Bytes written to the asset directory by kind",
		},
		[]string{"kind"},
	)

	// Auth
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idfportal_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Upstream proxy
	ProxyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idfportal_proxy_requests_total",
			Help: "Proxied API requests by outcome",
		},
		[]string{"outcome"},
	)

	ProxyBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idfportal_proxy_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordTableMutation counts a table mutation attempt.
func RecordTableMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TableMutations.WithLabelValues(operation, outcome).Inc()
}

// RecordDeviceImport counts stored devices and rejected rows.
func RecordDeviceImport(stored, rejected int) {
	DevicesImported.Add(float64(stored))
	DeviceRowsRejected.Add(float64(rejected))
}

// RecordLogin counts a login attempt.
func RecordLogin(success bool) {
	if success {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}
