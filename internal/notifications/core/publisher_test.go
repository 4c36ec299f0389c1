package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/types"
)

type mockSQSSender struct {
	calls []*sqs.SendMessageInput
	err   error
}

func (m *mockSQSSender) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func TestFailedDeliveryPublisher_Publish(t *testing.T) {
	sender := &mockSQSSender{}
	p := NewFailedDeliveryPublisher(sender, "https://sqs.us-east-1.amazonaws.com/123/failed", newRecordingLogger())
	attempt := DeliveryAttempt{
		ID:          "d-1",
		Job:         types.JobPairUp,
		RecipientID: "u1",
		Attempts:    3,
		Outcome:     MetricFailed,
		StatusCode:  502,
		At:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Publish(context.Background(), attempt))

	require.Len(t, sender.calls, 1)
	in := sender.calls[0]
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/failed", aws.ToString(in.QueueUrl))
	assert.Equal(t, types.JobPairUp, aws.ToString(in.MessageAttributes["job"].StringValue))

	var decoded DeliveryAttempt
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &decoded))
	assert.Equal(t, attempt, decoded)
}

func TestFailedDeliveryPublisher_SendError(t *testing.T) {
	boom := errors.New("access denied")
	p := NewFailedDeliveryPublisher(&mockSQSSender{err: boom}, "q", newRecordingLogger())

	err := p.Publish(context.Background(), DeliveryAttempt{ID: "d-1"})

	assert.ErrorIs(t, err, boom)
}
