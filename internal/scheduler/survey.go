package scheduler

import (
	"context"
	"fmt"
	"time"

	"onboarding/internal/notifications/core"
	"onboarding/internal/types"
)

// SurveyNotifier asks new hires with an approved introduction to fill in the
// onboarding survey, then marks the introduction as surveyed.
type SurveyNotifier struct {
	directory types.RecipientDirectory
	content   types.ContentSource
	renderer  types.CardRenderer
	sender    Sender
	batchSize int
	logger    types.Logger
}

var _ Job = (*SurveyNotifier)(nil)

func NewSurveyNotifier(
	directory types.RecipientDirectory,
	content types.ContentSource,
	renderer types.CardRenderer,
	sender Sender,
	batchSize int,
	logger types.Logger,
) *SurveyNotifier {
	if batchSize <= 0 {
		batchSize = core.DefaultBatchSize
	}
	return &SurveyNotifier{
		directory: directory,
		content:   content,
		renderer:  renderer,
		sender:    sender,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (n *SurveyNotifier) Name() string { return types.JobSurvey }

// Run processes pending introductions in batches. A record is persisted as
// sent right after its own delivery succeeds.
func (n *SurveyNotifier) Run(ctx context.Context, now time.Time) (int, error) {
	logger := loggerFor(ctx, n.logger)

	pending, err := n.content.GetIntroductionRecordsPendingSurvey(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading pending surveys: %w", err)
	}
	if len(pending) == 0 {
		logger.Info("survey: no pending surveys")
		return 0, nil
	}

	card, err := n.renderer.RenderSurveyCard()
	if err != nil {
		return 0, fmt.Errorf("rendering survey card: %w", err)
	}

	delivered := 0
	stats := core.RunBatch(ctx, pending, n.batchSize, func(ctx context.Context, rec types.IntroductionRecord) {
		recipient, err := n.directory.GetByID(ctx, rec.NewHireID)
		if err != nil {
			logger.Error("survey: failed to load new hire",
				"new_hire_id", rec.NewHireID,
				"error", err.Error(),
			)
			return
		}
		if recipient == nil {
			logger.Warn("survey: new hire not found", "new_hire_id", rec.NewHireID)
			return
		}
		if !n.sender.Send(ctx, *recipient, card) {
			return
		}
		delivered++

		if _, err := n.content.UpsertIntroduction(ctx, rec.MarkSurveySent(now)); err != nil {
			logger.Error("survey: failed to mark introduction as surveyed",
				"new_hire_id", rec.NewHireID,
				"manager_id", rec.ManagerID,
				"error", err.Error(),
			)
		}
	})

	logger.Info("survey: batch complete",
		"pending", stats.Items,
		"batches", len(stats.Sizes),
		"delivered", delivered,
		"panics", len(stats.Panics),
	)
	return delivered, nil
}

// FeedbackConfig addresses the HR team channel.
type FeedbackConfig struct {
	TeamID     string
	ServiceURL string
	Frequency  types.SurveyFrequency
	// Weekday is the posting day for the weekly frequency.
	Weekday time.Weekday
}

// FeedbackNotifier tells the HR team that new hire feedback is ready to
// review, weekly on the configured weekday or on the first of the month.
type FeedbackNotifier struct {
	renderer types.CardRenderer
	sender   Sender
	cfg      FeedbackConfig
	logger   types.Logger
}

var _ Job = (*FeedbackNotifier)(nil)

func NewFeedbackNotifier(renderer types.CardRenderer, sender Sender, cfg FeedbackConfig, logger types.Logger) *FeedbackNotifier {
	if cfg.Frequency == "" {
		cfg.Frequency = types.SurveyWeekly
	}
	return &FeedbackNotifier{renderer: renderer, sender: sender, cfg: cfg, logger: logger}
}

func (n *FeedbackNotifier) Name() string { return types.JobFeedback }

// Due reports whether now is a posting day.
func (n *FeedbackNotifier) Due(now time.Time) bool {
	if n.cfg.Frequency == types.SurveyMonthly {
		return now.Day() == 1
	}
	return now.Weekday() == n.cfg.Weekday
}

func (n *FeedbackNotifier) Run(ctx context.Context, now time.Time) (int, error) {
	logger := loggerFor(ctx, n.logger)

	if n.cfg.TeamID == "" {
		logger.Info("feedback: no HR team configured")
		return 0, nil
	}
	if !n.Due(now) {
		logger.Info("feedback: not a posting day", "frequency", string(n.cfg.Frequency))
		return 0, nil
	}

	card, err := n.renderer.RenderFeedbackCard(now)
	if err != nil {
		return 0, fmt.Errorf("rendering feedback card: %w", err)
	}

	team := types.Recipient{
		ID:             n.cfg.TeamID,
		Name:           "HR team",
		ServiceURL:     n.cfg.ServiceURL,
		ConversationID: n.cfg.TeamID,
	}
	if !n.sender.Send(ctx, team, card) {
		return 0, nil
	}
	return 1, nil
}
