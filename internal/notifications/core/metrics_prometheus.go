package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ NotificationMetrics = (*PrometheusNotificationMetrics)(nil)

// PrometheusNotificationMetrics exposes the notification metrics for scraping
// by the long-running notifier.
type PrometheusNotificationMetrics struct {
	deliveries   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	tickDuration *prometheus.HistogramVec
	tickFailures *prometheus.CounterVec
}

// NewPrometheusNotificationMetrics registers the collectors with reg.
func NewPrometheusNotificationMetrics(reg prometheus.Registerer) *PrometheusNotificationMetrics {
	factory := promauto.With(reg)
	return &PrometheusNotificationMetrics{
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarding",
			Name:      "deliveries_total",
			Help:      "Notification sends by job and result.",
		}, []string{"job", "result"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "onboarding",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of a notification send including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		tickDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "onboarding",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one scheduler activation.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),
		tickFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onboarding",
			Name:      "tick_failures_total",
			Help:      "Scheduler activations that ended in an error.",
		}, []string{"job"}),
	}
}

func (m *PrometheusNotificationMetrics) RecordDelivery(_ context.Context, job string, result MetricResult) {
	m.deliveries.WithLabelValues(job, string(result)).Inc()
}

func (m *PrometheusNotificationMetrics) RecordLatency(_ context.Context, job string, duration time.Duration) {
	m.latency.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *PrometheusNotificationMetrics) RecordTick(_ context.Context, job string, duration time.Duration, err error) {
	m.tickDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.tickFailures.WithLabelValues(job).Inc()
	}
}
