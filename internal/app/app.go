// Package app wires the onboarding notifier from configuration. The three
// entry points (long-running notifier, Lambda multiplexer, CLI) share it so
// that a job behaves the same however it is triggered.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"onboarding/internal/cards"
	"onboarding/internal/config"
	"onboarding/internal/db"
	"onboarding/internal/external"
	"onboarding/internal/notifications/core"
	"onboarding/internal/pairing"
	"onboarding/internal/scheduler"
	"onboarding/internal/types"
)

// Deps are the collaborators NewApp assembles into jobs. Build derives them
// from configuration; tests supply fakes.
type Deps struct {
	DB        db.DBTX
	Transport types.Transport
	Metrics   core.NotificationMetrics
	// Failures is optional.
	Failures core.FailureSink
	Rand     types.RandSource
	Clock    types.Clock
	Logger   types.Logger
}

// App holds the wired jobs and the resources backing them.
type App struct {
	LearningPlan *scheduler.LearningPlanNotifier
	PairUp       *scheduler.PairUpNotifier
	Survey       *scheduler.SurveyNotifier
	Feedback     *scheduler.FeedbackNotifier
	Jobs         scheduler.Registry

	Locks   *db.JobLockRepository
	History *db.JobHistoryRepository

	Metrics core.NotificationMetrics
	// MetricsHandler serves the Prometheus registry; nil for other backends.
	MetricsHandler http.Handler
	// Breaker is nil unless BREAKER_ENABLED.
	Breaker *core.BreakerTransport
	Pool    *pgxpool.Pool

	cfg    *config.Config
	logger types.Logger
}

// BuildOptions adjusts Build for the CLI.
type BuildOptions struct {
	// DryRun replaces the connector with a transport that only logs.
	DryRun bool
}

// Build connects to the database, resolves the transport and the metrics
// backend, and assembles the jobs.
func Build(ctx context.Context, cfg *config.Config, logger types.Logger, opts BuildOptions) (*App, error) {
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		DB:     pool,
		Rand:   pairing.NewRandSource(),
		Clock:  types.RealClock{},
		Logger: logger,
	}

	var breaker *core.BreakerTransport
	if opts.DryRun {
		logger.Warn("dry run: deliveries are logged, not sent")
		deps.Transport = external.NewStubTransport(logger)
	} else {
		deps.Transport = external.NewConnectorClient(external.ConnectorConfig{
			AppID:       cfg.Bot.AppID,
			AppPassword: cfg.Bot.AppPassword,
			TokenURL:    cfg.Bot.TokenEndpoint(),
			Scope:       cfg.Bot.TokenScope,
			Timeout:     cfg.Bot.HTTPTimeout,
		})
		if cfg.Retry.BreakerEnabled {
			breaker = core.NewBreakerTransport(deps.Transport, core.BreakerSettings{
				Name:                "bot-connector",
				ConsecutiveFailures: cfg.Retry.BreakerConsecutiveFailures,
				OpenTimeout:         cfg.Retry.BreakerOpenTimeout,
			}, logger)
			deps.Transport = breaker
		}
	}

	var metricsHandler http.Handler
	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	switch cfg.Observability.MetricsBackend {
	case "cloudwatch":
		c, err := loadAWS()
		if err != nil {
			pool.Close()
			return nil, err
		}
		cw := cloudwatch.NewFromConfig(c, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		deps.Metrics = core.NewCloudWatchNotificationMetrics(cw, cfg.Observability.MetricNamespace, logger)
	case "prometheus":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		deps.Metrics = core.NewPrometheusNotificationMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	default:
		deps.Metrics = core.NoopMetrics{}
	}

	if cfg.AWS.FailedDeliveryQueue != "" {
		c, err := loadAWS()
		if err != nil {
			pool.Close()
			return nil, err
		}
		client := sqs.NewFromConfig(c, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		deps.Failures = core.NewFailedDeliveryPublisher(client, cfg.AWS.FailedDeliveryQueue, logger)
	}

	a := NewApp(cfg, deps)
	a.Pool = pool
	a.Breaker = breaker
	a.MetricsHandler = metricsHandler
	return a, nil
}

// NewApp assembles the jobs from deps.
func NewApp(cfg *config.Config, deps Deps) *App {
	if deps.Metrics == nil {
		deps.Metrics = core.NoopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = types.RealClock{}
	}
	if deps.Rand == nil {
		deps.Rand = pairing.NewRandSource()
	}
	logger := deps.Logger

	dispatcherOpts := []core.DispatcherOption{core.WithMetrics(deps.Metrics), core.WithClock(deps.Clock)}
	if deps.Failures != nil {
		dispatcherOpts = append(dispatcherOpts, core.WithFailureSink(deps.Failures))
	}
	dispatcher := core.NewDispatcher(deps.Transport, logger, dispatcherOpts...)
	envelope := func(p core.RetryPolicy) core.RetryPolicy {
		return p.WithEnvelope(cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)
	}

	recipients := db.NewRecipientRepository(deps.DB)
	content := db.NewContentRepository(deps.DB)
	renderer := cards.NewRenderer(cards.Config{
		AppBaseURI:      cfg.Bot.AppBaseURI,
		ManifestID:      cfg.Bot.ManifestID,
		FeedbackFormURL: cfg.Bot.ShareFeedbackFormURL,
	})

	a := &App{
		LearningPlan: scheduler.NewLearningPlanNotifier(recipients, content, renderer,
			dispatcher.For(types.JobLearningPlan, envelope(core.LearningPlanRetryPolicy())),
			scheduler.LearningPlanConfig{Weeks: cfg.Schedule.LearningPlanWeeks, Weekday: cfg.Schedule.Weekday()},
			logger.With("job", types.JobLearningPlan)),
		PairUp: scheduler.NewPairUpNotifier(recipients, renderer,
			pairing.NewSelector(deps.Rand, logger.With("job", types.JobPairUp)),
			dispatcher.For(types.JobPairUp, envelope(core.PairUpRetryPolicy())),
			cfg.Schedule.NewHireRetentionDays,
			logger.With("job", types.JobPairUp)),
		Survey: scheduler.NewSurveyNotifier(recipients, content, renderer,
			dispatcher.For(types.JobSurvey, envelope(core.SurveyRetryPolicy())),
			cfg.Schedule.SurveyBatchSize,
			logger.With("job", types.JobSurvey)),
		Feedback: scheduler.NewFeedbackNotifier(renderer,
			dispatcher.For(types.JobFeedback, envelope(core.SurveyRetryPolicy())),
			scheduler.FeedbackConfig{
				TeamID:     cfg.Bot.HRTeamID,
				ServiceURL: cfg.Bot.ServiceURL,
				Frequency:  cfg.Schedule.Frequency(),
				Weekday:    cfg.Schedule.Weekday(),
			},
			logger.With("job", types.JobFeedback)),
		Locks:   db.NewJobLockRepository(deps.DB, deps.Clock),
		History: db.NewJobHistoryRepository(deps.DB),
		Metrics: deps.Metrics,
		cfg:     cfg,
		logger:  logger,
	}
	a.Jobs = scheduler.NewRegistry(a.LearningPlan, a.PairUp, a.Survey, a.Feedback)
	return a
}

// Loops returns the three scheduler loops of the long-running notifier:
// learning plan, pair-up, and survey followed by feedback. A configured cron
// expression replaces a loop's fixed interval.
func (a *App) Loops() ([]*scheduler.Loop, error) {
	s := a.cfg.Schedule

	learningInterval, err := interval(s.LearningPlanCron, 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("LEARNING_PLAN_CRON: %w", err)
	}
	pairUpInterval, err := interval(s.PairUpCron, time.Duration(s.PairUpDelayDays)*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("PAIRUP_CRON: %w", err)
	}
	surveyVar := "SURVEY_INTERVAL"
	if s.SurveyCron != "" {
		surveyVar = "SURVEY_CRON"
	}
	surveyInterval, err := interval(s.SurveyCron, s.SurveyInterval)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", surveyVar, err)
	}

	opts := []scheduler.LoopOption{scheduler.WithLoopMetrics(a.Metrics)}
	return []*scheduler.Loop{
		scheduler.NewLoop(types.JobLearningPlan, a.LearningPlan.Tick, learningInterval, a.logger, opts...),
		scheduler.NewLoop(types.JobPairUp, scheduler.TickOf(a.PairUp), pairUpInterval, a.logger, opts...),
		scheduler.NewLoop(types.JobSurvey, scheduler.TickOf(scheduler.NewSequence(types.JobSurvey, a.Survey, a.Feedback)), surveyInterval, a.logger, opts...),
	}, nil
}

func interval(cronExpr string, fixed time.Duration) (scheduler.IntervalPolicy, error) {
	if cronExpr == "" {
		if fixed <= 0 {
			return nil, fmt.Errorf("interval must be positive, got %s", fixed)
		}
		return scheduler.FixedInterval(fixed), nil
	}
	return scheduler.NewCronInterval(cronExpr)
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
