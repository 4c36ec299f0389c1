// Package main is the long-running onboarding notifier. It runs the learning
// plan, pair-up and survey/feedback loops under one signal-derived context
// and serves /health and /metrics until SIGINT or SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/status"
)

func main() {
	bootLogger := app.NewLogger("info", os.Stdout)

	provider := config.NewSSMProvider(os.Getenv("AWS_REGION"))
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		provider = provider.WithEndpoint(endpoint)
	}
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := app.NewSlogAdapter(app.NewLogger(cfg.LogLevel, os.Stdout)).With("service", cfg.Service)
	logger.Info("onboarding notifier starting",
		"environment", cfg.Environment,
		"build", cfg.Build.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.BuildOptions{})
	if err != nil {
		logger.Error("failed to initialize notifier", "error", err.Error())
		os.Exit(1)
	}
	defer a.Close()

	loops, err := a.Loops()
	if err != nil {
		logger.Error("invalid schedule", "error", err.Error())
		os.Exit(1)
	}

	probes := []status.HealthProbe{status.DatabaseProbe{DB: a.Pool}}
	for _, l := range loops {
		probes = append(probes, status.LoopProbe{Loop: l})
	}
	if a.Breaker != nil {
		probes = append(probes, status.BreakerProbe{Breaker: a.Breaker})
	}
	srv, err := status.NewServer(logger, probes, a.MetricsHandler)
	if err != nil {
		logger.Error("failed to create status server", "error", err.Error())
		os.Exit(1)
	}

	for _, l := range loops {
		l.Start(ctx)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe(ctx, cfg.Observability.MetricsAddr) }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("status server failed", "error", err.Error())
		}
		stop()
	}

	for _, l := range loops {
		l.Stop()
	}
	logger.Info("onboarding notifier stopped")
}
