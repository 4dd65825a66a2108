package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "blinklean"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_admissions_total",
			Help:      "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_settlements_total",
			Help:      "Payment order and verification steps by outcome.",
		},
		[]string{"step", "outcome"},
	)

	gatewayLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_order_seconds",
			Help:      "Latency of payment gateway order creation.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	reconcileTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_tasks_total",
			Help:      "Reconciliation task results.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, grpcRequests, admissions, settlements, gatewayLatency, reconcileTasks)
	})
}

func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

// IncAdmission records a booking outcome: admitted, throttled, rejected, error.
func IncAdmission(outcome string) {
	admissions.WithLabelValues(outcome).Inc()
}

// IncSettlement records a settlement step (order, verify) and its outcome.
func IncSettlement(step, outcome string) {
	settlements.WithLabelValues(step, outcome).Inc()
}

func ObserveGateway(d time.Duration) {
	gatewayLatency.Observe(d.Seconds())
}

func IncReconcile(result string) {
	reconcileTasks.WithLabelValues(result).Inc()
}
