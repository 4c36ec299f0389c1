package types

// Telemetry metric names shared by the CloudWatch and Prometheus backends.
const (
	MetricDeliveryAttempt = "DeliveryAttempt"
	MetricDeliveryLatency = "DeliveryLatency"
	MetricTickDuration    = "TickDuration"
	MetricTickFailure     = "TickFailure"

	// Dimension Keys
	DimJob    = "Job"
	DimResult = "Result"

	MetricNamespace = "Onboarding"
)

// Job names used as metric dimensions, loop names, and task identifiers.
const (
	JobLearningPlan = "learning_plan"
	JobPairUp       = "pair_up"
	JobSurvey       = "survey"
	JobFeedback     = "feedback"
)
