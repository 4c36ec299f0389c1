package core

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"onboarding/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ NotificationMetrics = (*CloudWatchNotificationMetrics)(nil)

// CloudWatchNotificationMetrics emits notification metrics to CloudWatch:
//
//	DeliveryAttempt  {Job, Result}  count per Send outcome
//	DeliveryLatency  {Job}          milliseconds per Send
//	TickDuration     {Job}          milliseconds per scheduler activation
//	TickFailure      {Job}          count of ticks that ended in error
//
// Publishing failures are logged and otherwise ignored.
type CloudWatchNotificationMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchNotificationMetrics publishes into namespace, falling back to
// types.MetricNamespace when empty.
func NewCloudWatchNotificationMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchNotificationMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchNotificationMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (m *CloudWatchNotificationMetrics) RecordDelivery(ctx context.Context, job string, result MetricResult) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricDeliveryAttempt),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			jobDimension(job),
			{Name: aws.String(types.DimResult), Value: aws.String(string(result))},
		},
	})
}

func (m *CloudWatchNotificationMetrics) RecordLatency(ctx context.Context, job string, duration time.Duration) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricDeliveryLatency),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{jobDimension(job)},
	})
}

func (m *CloudWatchNotificationMetrics) RecordTick(ctx context.Context, job string, duration time.Duration, err error) {
	data := []cwtypes.MetricDatum{{
		MetricName: aws.String(types.MetricTickDuration),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{jobDimension(job)},
	}}
	if err != nil {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricTickFailure),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{jobDimension(job)},
		})
	}
	m.put(ctx, data...)
}

func (m *CloudWatchNotificationMetrics) put(ctx context.Context, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to publish metric",
			"error", err.Error(),
			"metric", aws.ToString(data[0].MetricName),
		)
	}
}

func jobDimension(job string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(types.DimJob), Value: aws.String(job)}
}
