package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/scheduler"
	"onboarding/internal/types"
)

// taskDescriptions lists every task the jobs registry serves.
var taskDescriptions = map[scheduler.TaskType]string{
	scheduler.TaskLearningPlan: "Send each new hire the learning plan card for their current week",
	scheduler.TaskPairUp:       "Introduce one tenured employee to one new hire",
	scheduler.TaskSurvey:       "Send the onboarding survey to new hires with an approved introduction",
	scheduler.TaskFeedback:     "Tell the HR team that new hire feedback is ready",
}

// env isolates configuration loading and job execution so commands can be
// tested without a database.
type env struct {
	loadConfig func() (*config.Config, error)
	runJob     func(ctx context.Context, cfg *config.Config, payload scheduler.JobPayload, dryRun bool) (string, error)
}

func defaultEnv() env {
	return env{
		loadConfig: func() (*config.Config, error) {
			provider := config.NewSSMProvider(os.Getenv("AWS_REGION"))
			if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
				provider = provider.WithEndpoint(endpoint)
			}
			return config.LoadConfig(provider)
		},
		runJob: runJob,
	}
}

func newRootCmd(e env) *cobra.Command {
	root := &cobra.Command{
		Use:           "onboardctl",
		Short:         "Run onboarding notification jobs on demand",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newRunCmd(e),
		newListCmd(),
		newConfigCmd(e),
		newVersionCmd(),
	)
	return root
}

// runJob wires the jobs the same way the Lambda does and runs one tick
// through the locked handler.
func runJob(ctx context.Context, cfg *config.Config, payload scheduler.JobPayload, dryRun bool) (string, error) {
	logger := app.NewSlogAdapter(app.NewLogger(cfg.LogLevel, os.Stderr)).With("service", "onboardctl")

	a, err := app.Build(ctx, cfg, logger, app.BuildOptions{DryRun: dryRun})
	if err != nil {
		return "", err
	}
	defer a.Close()

	h := &app.JobHandler{
		Jobs:       a.Jobs,
		JobLock:    a.Locks,
		JobHistory: a.History,
		WorkerID:   fmt.Sprintf("onboardctl-%s", uuid.NewString()),
		Clock:      types.RealClock{},
		Logger:     logger,
	}
	return h.Handle(ctx, payload)
}
