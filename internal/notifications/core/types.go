// Package core provides the delivery machinery shared by the scheduled
// notification jobs: bounded retry, per-recipient dispatch, batching, and
// delivery telemetry. A failed delivery never propagates past Dispatcher.Send.
package core

import (
	"context"
	"time"

	"onboarding/internal/types"
)

// MetricResult categorizes a delivery outcome for metrics reporting.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailed  MetricResult = "failed"
	MetricSkipped MetricResult = "skipped"
)

// NotificationMetrics abstracts CloudWatch/Prometheus reporting for the
// notification jobs.
type NotificationMetrics interface {
	RecordDelivery(ctx context.Context, job string, result MetricResult)
	RecordLatency(ctx context.Context, job string, duration time.Duration)
	// RecordTick reports one scheduler activation; err is the tick's outcome.
	RecordTick(ctx context.Context, job string, duration time.Duration, err error)
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) RecordDelivery(context.Context, string, MetricResult)     {}
func (NoopMetrics) RecordLatency(context.Context, string, time.Duration)     {}
func (NoopMetrics) RecordTick(context.Context, string, time.Duration, error) {}

// DeliveryAttempt is the outcome of one Dispatcher.Send call. It is not
// persisted; exhausted attempts are optionally published to a FailureSink.
type DeliveryAttempt struct {
	ID             string                `json:"id"`
	Job            string                `json:"job"`
	RecipientID    string                `json:"recipient_id"`
	Conversation   types.ConversationRef `json:"conversation"`
	Attempts       int                   `json:"attempts"`
	Outcome        MetricResult          `json:"outcome"`
	Error          string                `json:"error,omitempty"`
	StatusCode     int                   `json:"status_code,omitempty"`
	PayloadSummary string                `json:"payload_summary,omitempty"`
	At             time.Time             `json:"at"`
}

// FailureSink receives deliveries that exhausted their retry budget.
type FailureSink interface {
	Publish(ctx context.Context, attempt DeliveryAttempt) error
}
