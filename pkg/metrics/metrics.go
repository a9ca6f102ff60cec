package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec

	// Booking metrics
	BookingsCreated  prometheus.Counter
	BookingConflicts *prometheus.CounterVec
	BookingLockWait  prometheus.Histogram

	// Post-commit hooks
	HookRuns *prometheus.CounterVec

	// Notification delivery
	NotificationsSent *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them on reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		BookingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total number of confirmed bookings created",
		}),
		BookingConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "conflicts_total",
			Help:      "Booking requests rejected by a conflict",
		}, []string{"reason"}),
		BookingLockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the doctor/date booking lock",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		HookRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "runs_total",
			Help:      "Post-commit hook executions by outcome",
		}, []string{"hook", "outcome"}),

		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "sent_total",
			Help:      "Notification delivery attempts by status",
		}, []string{"status"}),
	}
}

// NewNop returns metrics registered on a throwaway registry.
func NewNop() *Metrics {
	return NewMetrics("test", prometheus.NewRegistry())
}

// CounterValue reads the current value of c.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
