// Package main is the entrypoint for the onboarding jobs Lambda function.
//
// EventBridge rules send a JobPayload naming one task (learning_plan,
// pair_up, survey, feedback). The handler acquires an hourly job lock, runs
// one tick of the task, and records the run in job_history. One function
// serves all four schedules to keep cold starts and infrastructure small.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"

	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/types"
)

func main() {
	bootLogger := app.NewLogger("info", os.Stdout)
	bootLogger.Info("onboarding jobs Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSSMProvider(os.Getenv("AWS_REGION")))
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := app.NewSlogAdapter(app.NewLogger(cfg.LogLevel, os.Stdout)).With("service", cfg.Service)

	a, err := app.Build(context.Background(), cfg, logger, app.BuildOptions{})
	if err != nil {
		logger.Error("failed to initialize jobs", "error", err.Error())
		os.Exit(1)
	}

	// Identifies this Lambda instance as the owner of the locks it takes.
	workerID := uuid.NewString()

	handler := &app.JobHandler{
		Jobs:       a.Jobs,
		JobLock:    a.Locks,
		JobHistory: a.History,
		WorkerID:   workerID,
		Clock:      types.RealClock{},
		Logger:     logger,
	}

	logger.Info("onboarding jobs Lambda initialized", "worker_id", workerID)
	lambda.Start(handler.Handle)
}
