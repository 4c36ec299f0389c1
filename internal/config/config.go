// Package config defines the configuration of the onboarding notifier.
// Configuration is loaded once at process start and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format aborts startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"onboarding/internal/types"
)

// SecretString is an alias for types.SecretString.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the config subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"onboarding-notifier"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Bot           BotConfig
	Schedule      ScheduleConfig
	Retry         RetryConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// BotConfig holds the Bot Framework identity and the Teams destinations the
// scheduler posts to.
type BotConfig struct {
	AppID       string       `envconfig:"MICROSOFT_APP_ID" validate:"required"`
	AppPassword SecretString `envconfig:"MICROSOFT_APP_PASSWORD" validate:"required"`
	TenantID    string       `envconfig:"MICROSOFT_APP_TENANT" default:"botframework.com"`
	// TokenURL overrides the token endpoint derived from TenantID.
	TokenURL   string `envconfig:"BOT_TOKEN_URL" validate:"omitempty,url"`
	TokenScope string `envconfig:"BOT_TOKEN_SCOPE" default:"https://api.botframework.com/.default"`
	// ServiceURL is used for channel posts that have no stored conversation (HR team feedback).
	ServiceURL  string        `envconfig:"BOT_SERVICE_URL" default:"https://smba.trafficmanager.net/amer/" validate:"url"`
	HTTPTimeout time.Duration `envconfig:"BOT_HTTP_TIMEOUT" default:"30s"`

	HRTeamID             string `envconfig:"HR_TEAM_ID"`
	AppBaseURI           string `envconfig:"APP_BASE_URI" validate:"required,url"`
	ManifestID           string `envconfig:"MANIFEST_ID"`
	ShareFeedbackFormURL string `envconfig:"SHARE_FEEDBACK_FORM_URL" validate:"omitempty,url"`
}

// TokenEndpoint returns the OAuth2 token URL for the bot's client credentials.
func (b BotConfig) TokenEndpoint() string {
	if b.TokenURL != "" {
		return b.TokenURL
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", b.TenantID)
}

// ScheduleConfig holds the cadence of the three notification loops.
// A non-empty *Cron field replaces the fixed interval of that loop.
type ScheduleConfig struct {
	LearningPlanWeeks   int    `envconfig:"LEARNING_PLAN_WEEKS" default:"4" validate:"min=1,max=52"`
	LearningPlanWeekday string `envconfig:"LEARNING_PLAN_WEEKDAY" default:"Monday" validate:"oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	LearningPlanCron    string `envconfig:"LEARNING_PLAN_CRON"`

	PairUpDelayDays      int    `envconfig:"PAIRUP_DELAY_DAYS" default:"1" validate:"min=1"`
	NewHireRetentionDays int    `envconfig:"NEW_HIRE_RETENTION_DAYS" default:"30" validate:"min=0"`
	PairUpCron           string `envconfig:"PAIRUP_CRON"`

	SurveyBatchSize int           `envconfig:"SURVEY_BATCH_SIZE" default:"5" validate:"min=1,max=100"`
	SurveyFrequency string        `envconfig:"SURVEY_FREQUENCY" default:"weekly" validate:"oneof=weekly monthly"`
	SurveyInterval  time.Duration `envconfig:"SURVEY_INTERVAL" default:"24h" validate:"gt=0s"`
	SurveyCron      string        `envconfig:"SURVEY_CRON"`
}

// Weekday returns the configured learning plan weekday.
func (s ScheduleConfig) Weekday() time.Weekday {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s.LearningPlanWeekday) {
			return d
		}
	}
	return time.Monday
}

// Frequency returns the configured feedback frequency.
func (s ScheduleConfig) Frequency() types.SurveyFrequency {
	return types.SurveyFrequency(strings.ToLower(s.SurveyFrequency))
}

// RetryConfig holds the delivery retry envelope and the optional breaker.
type RetryConfig struct {
	MaxRetries int           `envconfig:"DELIVERY_MAX_RETRIES" default:"2" validate:"min=0,max=10"`
	BaseDelay  time.Duration `envconfig:"DELIVERY_BASE_DELAY" default:"1s"`
	MaxDelay   time.Duration `envconfig:"DELIVERY_MAX_DELAY" default:"30s"`

	BreakerEnabled             bool          `envconfig:"BREAKER_ENABLED" default:"false"`
	BreakerConsecutiveFailures uint32        `envconfig:"BREAKER_CONSECUTIVE_FAILURES" default:"5" validate:"min=1"`
	BreakerOpenTimeout         time.Duration `envconfig:"BREAKER_OPEN_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"5"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// FailedDeliveryQueue receives deliveries that exhausted their retries.
	// Empty disables publishing.
	FailedDeliveryQueue string `envconfig:"SQS_FAILED_DELIVERIES" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry and monitoring settings.
type ObservabilityConfig struct {
	MetricsBackend  string `envconfig:"METRICS_BACKEND" default:"prometheus" validate:"oneof=cloudwatch prometheus none"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"Onboarding"`
	MetricsAddr     string `envconfig:"METRICS_ADDR" default:":9090"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrMissingEnv    ConfigErrorType = "MISSING_ENV"
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED"
	ErrParsing       ConfigErrorType = "PARSING_FAILED"
)
