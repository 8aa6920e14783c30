package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaugetrack_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gaugetrack_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gaugetrack_http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Pairing operations by action (create_set, pair, unpair, replace) and outcome
	pairingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaugetrack_pairing_operations_total",
			Help: "Set lifecycle operations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// Checkout operations by outcome
	checkoutOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gaugetrack_checkout_operations_total",
			Help: "Set checkout and return operations by action and outcome",
		},
		[]string{"action", "outcome"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordPairingOperation counts one set lifecycle operation
func RecordPairingOperation(action string, success bool) {
	pairingOperationsTotal.With(prometheus.Labels{
		"action":  action,
		"outcome": outcomeLabel(success),
	}).Inc()
}

// RecordCheckoutOperation counts one checkout or return operation
func RecordCheckoutOperation(action string, success bool) {
	checkoutOperationsTotal.With(prometheus.Labels{
		"action":  action,
		"outcome": outcomeLabel(success),
	}).Inc()
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
