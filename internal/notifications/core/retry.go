package core

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"onboarding/internal/types"
)

// Defaults of the delivery retry envelope.
const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// RetryPolicy bounds the attempts made for a single delivery. Only errors
// accepted by Transient are retried; everything else is attempted once.
// The zero value makes exactly one attempt.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Transient  func(error) bool

	// Jitter returns a value in [0, 1). Nil uses math/rand/v2.
	Jitter func() float64
	// Timer drives the waits between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// NewRetryPolicy builds a policy with the default envelope that retries the
// given HTTP statuses.
func NewRetryPolicy(transientStatuses ...int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Transient:  TransientStatuses(transientStatuses...),
	}
}

// PairUpRetryPolicy retries rate limiting and bad gateway responses.
func PairUpRetryPolicy() RetryPolicy {
	return NewRetryPolicy(http.StatusTooManyRequests, http.StatusBadGateway)
}

// SurveyRetryPolicy retries rate limiting and internal server errors.
// Used for both the new hire survey and the HR feedback card.
func SurveyRetryPolicy() RetryPolicy {
	return NewRetryPolicy(http.StatusTooManyRequests, http.StatusInternalServerError)
}

// LearningPlanRetryPolicy retries rate limiting and internal server errors.
func LearningPlanRetryPolicy() RetryPolicy {
	return NewRetryPolicy(http.StatusTooManyRequests, http.StatusInternalServerError)
}

// WithEnvelope returns a copy of p with the retry count and delay bounds replaced.
func (p RetryPolicy) WithEnvelope(maxRetries int, baseDelay, maxDelay time.Duration) RetryPolicy {
	p.MaxRetries = maxRetries
	p.BaseDelay = baseDelay
	p.MaxDelay = maxDelay
	return p
}

// TransientStatuses returns a classifier accepting DeliveryErrors whose
// status is in the allow-list.
func TransientStatuses(statuses ...int) func(error) bool {
	allowed := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		allowed[s] = struct{}{}
	}
	return func(err error) bool {
		status, ok := types.DeliveryStatus(err)
		if !ok {
			return false
		}
		_, retry := allowed[status]
		return retry
	}
}

// Execute runs action until it succeeds, fails permanently, or the retry
// budget is spent. It returns the number of attempts made and the last error.
// Every call starts with a fresh budget.
func (p RetryPolicy) Execute(ctx context.Context, action func(ctx context.Context) error) (int, error) {
	attempts := 0
	op := func() error {
		attempts++
		err := action(ctx)
		if err == nil {
			return nil
		}
		if p.Transient == nil || !p.Transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(max(p.MaxRetries, 0))), ctx)
	err := backoff.RetryNotifyWithTimer(op, b, nil, p.Timer)
	return attempts, err
}

func (p RetryPolicy) newBackOff() *decorrelatedJitter {
	jitter := p.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	return &decorrelatedJitter{base: p.BaseDelay, cap: p.MaxDelay, jitter: jitter}
}

// decorrelatedJitter yields sleep = min(cap, uniform[base, prev*3]).
// Consecutive delays are correlated only through prev, which spreads
// recipients retried at the same instant.
type decorrelatedJitter struct {
	base   time.Duration
	cap    time.Duration
	prev   time.Duration
	jitter func() float64
}

func (d *decorrelatedJitter) NextBackOff() time.Duration {
	upper := d.prev * 3
	if upper < d.base {
		upper = d.base
	}
	next := d.base + time.Duration(d.jitter()*float64(upper-d.base))
	if d.cap > 0 && next > d.cap {
		next = d.cap
	}
	d.prev = next
	return next
}

func (d *decorrelatedJitter) Reset() {
	d.prev = d.base
}
