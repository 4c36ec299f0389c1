package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"onboarding/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ FailureSink = (*FailedDeliveryPublisher)(nil)

// FailedDeliveryPublisher parks exhausted deliveries on an SQS queue for
// operator inspection. Nothing consumes the queue automatically; a parked
// delivery is not retried by the scheduler.
type FailedDeliveryPublisher struct {
	client   SQSSender
	queueURL string
	logger   types.Logger
}

func NewFailedDeliveryPublisher(client SQSSender, queueURL string, logger types.Logger) *FailedDeliveryPublisher {
	return &FailedDeliveryPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Publish serializes attempt as JSON with the job as a message attribute.
func (p *FailedDeliveryPublisher) Publish(ctx context.Context, attempt DeliveryAttempt) error {
	body, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("failed delivery publisher: marshal attempt: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"job": {DataType: aws.String("String"), StringValue: aws.String(attempt.Job)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed delivery publisher: send to %s: %w", p.queueURL, err)
	}

	p.logger.Info("exhausted delivery parked",
		"delivery_id", attempt.ID,
		"recipient_id", attempt.RecipientID,
		"job", attempt.Job,
		"attempts", attempt.Attempts,
	)
	return nil
}
