package core

import (
	"context"

	"github.com/google/uuid"

	"onboarding/internal/types"
)

// Dispatcher delivers one rendered payload to one recipient's personal
// conversation. Send never returns an error: the outcome is a bool plus a
// single terminal log line.
type Dispatcher struct {
	transport types.Transport
	metrics   NotificationMetrics
	failures  FailureSink
	clock     types.Clock
	logger    types.Logger

	job    string
	policy RetryPolicy
}

// DispatcherOption configures optional Dispatcher collaborators.
type DispatcherOption func(*Dispatcher)

// WithMetrics records delivery outcomes and latency.
func WithMetrics(m NotificationMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithFailureSink publishes exhausted deliveries.
func WithFailureSink(s FailureSink) DispatcherOption {
	return func(d *Dispatcher) { d.failures = s }
}

// WithClock overrides the clock used for latency and attempt timestamps.
func WithClock(c types.Clock) DispatcherOption {
	return func(d *Dispatcher) { d.clock = c }
}

// NewDispatcher creates a Dispatcher that makes a single attempt per send
// until bound to a job policy with For.
func NewDispatcher(transport types.Transport, logger types.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		metrics:   NoopMetrics{},
		clock:     types.RealClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// For returns a copy of d bound to a job name and its retry policy.
func (d *Dispatcher) For(job string, policy RetryPolicy) *Dispatcher {
	c := *d
	c.job = job
	c.policy = policy
	c.logger = d.logger.With("job", job)
	return &c
}

// Send delivers payload to recipient. It returns false without contacting
// the transport when the recipient has no conversation address or the
// payload is empty.
func (d *Dispatcher) Send(ctx context.Context, recipient types.Recipient, payload types.Payload) bool {
	if !recipient.Addressable() || payload.IsZero() {
		d.logger.Warn("notification skipped: invalid recipient or payload",
			"recipient_id", recipient.ID,
			"has_conversation", recipient.ConversationID != "",
			"empty_payload", payload.IsZero(),
		)
		d.metrics.RecordDelivery(ctx, d.job, MetricSkipped)
		return false
	}

	ref := recipient.ConversationRef()
	start := d.clock.Now()
	attempts, err := d.policy.Execute(ctx, func(ctx context.Context) error {
		return d.transport.ResumeConversationAndSend(ctx, ref, payload)
	})
	d.metrics.RecordLatency(ctx, d.job, d.clock.Now().Sub(start))

	if err != nil {
		d.logger.Error("notification delivery failed",
			"recipient_id", recipient.ID,
			"conversation_id", ref.ConversationID,
			"attempts", attempts,
			"error", err.Error(),
		)
		d.metrics.RecordDelivery(ctx, d.job, MetricFailed)
		d.publishFailure(ctx, recipient, payload, attempts, err)
		return false
	}

	d.logger.Info("notification delivered",
		"recipient_id", recipient.ID,
		"conversation_id", ref.ConversationID,
		"attempts", attempts,
	)
	d.metrics.RecordDelivery(ctx, d.job, MetricSuccess)
	return true
}

func (d *Dispatcher) publishFailure(ctx context.Context, recipient types.Recipient, payload types.Payload, attempts int, cause error) {
	if d.failures == nil {
		return
	}
	status, _ := types.DeliveryStatus(cause)
	attempt := DeliveryAttempt{
		ID:             uuid.NewString(),
		Job:            d.job,
		RecipientID:    recipient.ID,
		Conversation:   recipient.ConversationRef(),
		Attempts:       attempts,
		Outcome:        MetricFailed,
		Error:          cause.Error(),
		StatusCode:     status,
		PayloadSummary: payload.Summary,
		At:             d.clock.Now(),
	}
	if err := d.failures.Publish(ctx, attempt); err != nil {
		d.logger.Warn("failed to publish exhausted delivery",
			"recipient_id", recipient.ID,
			"error", err.Error(),
		)
	}
}
