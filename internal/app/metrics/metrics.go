// Package metrics exposes Prometheus collectors for the storefront core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of local API requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of local API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	checkoutAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Total number of checkout attempts by terminal outcome.",
		},
		[]string{"outcome"},
	)

	checkoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "Wall time of checkout attempts including the payment sheet.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
	)

	agentAssignFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "agent_assign_failures_total",
			Help:      "Best-effort agent assignments that failed after a placed order.",
		},
	)

	cartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations by operation.",
		},
		[]string{"op"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		checkoutAttempts,
		checkoutDuration,
		agentAssignFailures,
		cartMutations,
	)
}

// ObserveCheckout records a terminal checkout outcome and its duration.
func ObserveCheckout(outcome string, elapsed time.Duration) {
	checkoutAttempts.WithLabelValues(outcome).Inc()
	checkoutDuration.Observe(elapsed.Seconds())
}

// AgentAssignFailed counts a failed best-effort agent assignment.
func AgentAssignFailed() {
	agentAssignFailures.Inc()
}

// CartMutation counts one cart operation.
func CartMutation(op string) {
	cartMutations.WithLabelValues(op).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware instruments local API requests.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
