package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onboarding/internal/config"
)

func newConfigCmd(e env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the notifier configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration, then print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}
			printConfig(cmd, cfg)
			return nil
		},
	})
	return cmd
}

// printConfig never prints secret values; SecretString formats as masked.
func printConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	line := func(key string, value any) {
		_, _ = fmt.Fprintf(out, "%-28s %v\n", key, value)
	}

	line("environment", cfg.Environment)
	line("bot.app_id", cfg.Bot.AppID)
	line("bot.app_password", cfg.Bot.AppPassword)
	line("bot.token_endpoint", cfg.Bot.TokenEndpoint())
	line("bot.service_url", cfg.Bot.ServiceURL)
	line("bot.hr_team_id", cfg.Bot.HRTeamID)
	line("schedule.learning_plan", fmt.Sprintf("%d weeks on %s", cfg.Schedule.LearningPlanWeeks, cfg.Schedule.Weekday()))
	line("schedule.pair_up", fmt.Sprintf("every %d days, retention %d days", cfg.Schedule.PairUpDelayDays, cfg.Schedule.NewHireRetentionDays))
	line("schedule.survey", fmt.Sprintf("batch %d, feedback %s", cfg.Schedule.SurveyBatchSize, cfg.Schedule.Frequency()))
	line("retry", fmt.Sprintf("%d retries, %s..%s, breaker=%t", cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, cfg.Retry.MaxDelay, cfg.Retry.BreakerEnabled))
	line("database.url", cfg.Database.URL)
	line("metrics.backend", cfg.Observability.MetricsBackend)
	line("aws.failed_delivery_queue", cfg.AWS.FailedDeliveryQueue)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.NewBuildInfo().String())
			return err
		},
	}
}
