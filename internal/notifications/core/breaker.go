package core

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"onboarding/internal/types"
)

// BreakerSettings configures BreakerTransport.
type BreakerSettings struct {
	Name string
	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a probe.
	OpenTimeout time.Duration
	// CountsAsFailure decides which transport errors feed the breaker.
	// Nil counts every error.
	CountsAsFailure func(error) bool
}

// BreakerTransport short-circuits deliveries after a run of consecutive
// upstream failures so a connector outage does not cost every remaining
// recipient a full retry budget. Rejections surface as DeliveryErrors with
// status 0 and code upstream_circuit_open.
type BreakerTransport struct {
	next   types.Transport
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger types.Logger
}

var _ types.Transport = (*BreakerTransport)(nil)

// NewBreakerTransport wraps next with a circuit breaker.
func NewBreakerTransport(next types.Transport, s BreakerSettings, logger types.Logger) *BreakerTransport {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	countsAsFailure := s.CountsAsFailure
	if countsAsFailure == nil {
		countsAsFailure = func(error) bool { return true }
	}

	t := &BreakerTransport{next: next, logger: logger}
	t.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("delivery circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return t
}

// ResumeConversationAndSend forwards to the wrapped transport unless the
// breaker is open.
func (t *BreakerTransport) ResumeConversationAndSend(ctx context.Context, ref types.ConversationRef, payload types.Payload) error {
	_, err := t.cb.Execute(func() (struct{}, error) {
		return struct{}{}, t.next.ResumeConversationAndSend(ctx, ref, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &types.DeliveryError{
			Message: "delivery short-circuited",
			Err:     types.NewAppError(types.ErrCodeUpstreamCircuitOpen, "connector circuit breaker is open", err),
		}
	}
	return err
}

// State reports the current breaker state for health reporting.
func (t *BreakerTransport) State() string {
	return t.cb.State().String()
}
