package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"onboarding/internal/scheduler"
)

func newRunCmd(e env) *cobra.Command {
	var (
		at          string
		dryRun      bool
		payloadOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Run one tick of a job",
		Long: "Run one tick of a job through the same lock and job history the Lambda uses.\n" +
			"--dry-run logs deliveries instead of sending them; --payload-only prints the\n" +
			"Lambda payload without touching the database.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := scheduler.TaskType(args[0])
			if _, ok := taskDescriptions[task]; !ok {
				return fmt.Errorf("unknown task %q (see onboardctl list)", args[0])
			}

			payload := scheduler.JobPayload{Task: task}
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q: expected RFC3339, e.g. 2026-03-02T09:00:00Z", at)
				}
				payload.ReferenceTime = &t
			}

			if payloadOnly {
				data, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			cfg, err := e.loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := e.runJob(ctx, cfg, payload, dryRun)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time (RFC3339) instead of now")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log deliveries instead of sending them")
	cmd.Flags().BoolVar(&payloadOnly, "payload-only", false, "print the JSON payload and exit")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks := make([]string, 0, len(taskDescriptions))
			width := 0
			for t := range taskDescriptions {
				tasks = append(tasks, string(t))
				width = max(width, len(t))
			}
			sort.Strings(tasks)
			for _, t := range tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", width, t, taskDescriptions[scheduler.TaskType(t)])
			}
			return nil
		},
	}
}
