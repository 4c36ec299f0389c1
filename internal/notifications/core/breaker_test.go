package core

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/types"
)

func TestBreakerTransport_OpensAfterConsecutiveFailures(t *testing.T) {
	tr := newScriptedTransport()
	tr.fail["conv-a"] = deliveryErr(http.StatusBadGateway)
	logger := newRecordingLogger()
	bt := NewBreakerTransport(tr, BreakerSettings{
		Name:                "connector",
		ConsecutiveFailures: 3,
		OpenTimeout:         time.Minute,
	}, logger)

	for i := 0; i < 3; i++ {
		err := bt.ResumeConversationAndSend(context.Background(), recipient("a").ConversationRef(), card())
		require.Error(t, err)
	}
	assert.Equal(t, "open", bt.State())

	err := bt.ResumeConversationAndSend(context.Background(), recipient("a").ConversationRef(), card())

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamCircuitOpen, appErr.Code)
	status, ok := types.DeliveryStatus(err)
	assert.True(t, ok)
	assert.Zero(t, status)
	assert.Equal(t, 3, tr.callsFor("conv-a"))
	assert.NotEmpty(t, logger.byLevel("warn"))
}

func TestBreakerTransport_PermanentErrorsDoNotTrip(t *testing.T) {
	tr := newScriptedTransport()
	tr.fail["conv-a"] = deliveryErr(http.StatusForbidden)
	bt := NewBreakerTransport(tr, BreakerSettings{
		Name:                "connector",
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
		CountsAsFailure:     TransientStatuses(http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway),
	}, newRecordingLogger())

	for i := 0; i < 5; i++ {
		_ = bt.ResumeConversationAndSend(context.Background(), recipient("a").ConversationRef(), card())
	}

	assert.Equal(t, "closed", bt.State())
	assert.Equal(t, 5, tr.callsFor("conv-a"))
}

// An open breaker fails the remaining recipients fast: the open-circuit error
// is outside every retry allow-list so each costs a single attempt.
func TestBreakerTransport_OpenCircuitNotRetried(t *testing.T) {
	tr := newScriptedTransport()
	tr.fail["conv-a"] = deliveryErr(http.StatusBadGateway)
	bt := NewBreakerTransport(tr, BreakerSettings{Name: "connector", ConsecutiveFailures: 1, OpenTimeout: time.Minute}, newRecordingLogger())
	d := NewDispatcher(bt, newRecordingLogger()).For(types.JobPairUp, testPolicy(&immediateTimer{}, http.StatusBadGateway))

	assert.False(t, d.Send(context.Background(), recipient("a"), card()))
	assert.False(t, d.Send(context.Background(), recipient("b"), card()))

	assert.Equal(t, 1, tr.callsFor("conv-a"))
	assert.Zero(t, tr.callsFor("conv-b"))
}
