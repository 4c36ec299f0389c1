package scheduler

import (
	"context"
	"fmt"
	"time"

	"onboarding/internal/notifications/core"
	"onboarding/internal/types"
)

// DefaultLearningPlanWeeks is the number of weekly buckets walked per run.
const DefaultLearningPlanWeeks = 4

// LearningPlanConfig controls the weekly learning plan job.
type LearningPlanConfig struct {
	Weeks   int
	Weekday time.Weekday
}

// LearningPlanNotifier sends each new hire the learning plan card of the week
// they are in, once a week on the configured weekday.
type LearningPlanNotifier struct {
	directory types.RecipientDirectory
	content   types.ContentSource
	renderer  types.CardRenderer
	sender    Sender
	cfg       LearningPlanConfig
	logger    types.Logger
}

var _ Job = (*LearningPlanNotifier)(nil)

func NewLearningPlanNotifier(
	directory types.RecipientDirectory,
	content types.ContentSource,
	renderer types.CardRenderer,
	sender Sender,
	cfg LearningPlanConfig,
	logger types.Logger,
) *LearningPlanNotifier {
	if cfg.Weeks <= 0 {
		cfg.Weeks = DefaultLearningPlanWeeks
	}
	return &LearningPlanNotifier{
		directory: directory,
		content:   content,
		renderer:  renderer,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
	}
}

func (n *LearningPlanNotifier) Name() string { return types.JobLearningPlan }

// Run acts only on the configured weekday.
func (n *LearningPlanNotifier) Run(ctx context.Context, now time.Time) (int, error) {
	logger := loggerFor(ctx, n.logger)
	if now.Weekday() != n.cfg.Weekday {
		logger.Info("learning plan: not the notification day",
			"weekday", now.Weekday().String(),
			"notification_day", n.cfg.Weekday.String(),
		)
		return 0, nil
	}
	_, delivered, err := n.sendWeekly(ctx, now)
	return delivered, err
}

// Tick is the loop entry point.
func (n *LearningPlanNotifier) Tick(ctx context.Context, now time.Time) error {
	_, err := n.Run(ctx, now)
	return err
}

// SendWeekly sends the week-appropriate card to every new hire enrolled up
// to Weeks weeks ago, without the weekday gate. It reports false when no
// learning plan is configured.
func (n *LearningPlanNotifier) SendWeekly(ctx context.Context, now time.Time) (bool, error) {
	sent, _, err := n.sendWeekly(ctx, now)
	return sent, err
}

func (n *LearningPlanNotifier) sendWeekly(ctx context.Context, now time.Time) (bool, int, error) {
	logger := loggerFor(ctx, n.logger)

	items, err := n.content.GetLearningPlanItems(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("loading learning plan: %w", err)
	}
	if len(items) == 0 {
		logger.Info("learning plan: no learning plan configured")
		return false, 0, nil
	}

	newHires, err := n.directory.GetAllByRole(ctx, types.RoleNewHire)
	if err != nil {
		return false, 0, fmt.Errorf("loading new hires: %w", err)
	}

	delivered := 0
	for week := 1; week <= n.cfg.Weeks; week++ {
		recipients := enrolledInWeek(newHires, week, now)
		if len(recipients) == 0 {
			continue
		}
		weekItems := types.ItemsForWeek(items, week)
		if len(weekItems) == 0 {
			logger.Info("learning plan: no items for week", "week", week)
			continue
		}

		card, err := n.renderer.RenderLearningPlanCard(weekItems, week)
		if err != nil {
			logger.Error("learning plan: failed to render card",
				"week", week,
				"error", err.Error(),
			)
			continue
		}

		var ok int
		stats := core.RunBatch(ctx, recipients, core.DefaultBatchSize, func(ctx context.Context, r types.Recipient) {
			if n.sender.Send(ctx, r, card) {
				ok++
			}
		})
		delivered += ok
		logger.Info("learning plan: week processed",
			"week", week,
			"recipients", stats.Items,
			"delivered", ok,
		)
	}

	return true, delivered, nil
}

// enrolledInWeek returns the recipients whose whole-day enrollment age falls
// in (7(week-1), 7*week].
func enrolledInWeek(recipients []types.Recipient, week int, now time.Time) []types.Recipient {
	lo, hi := 7*(week-1), 7*week
	var out []types.Recipient
	for _, r := range recipients {
		if age := r.AgeInDays(now); age > lo && age <= hi {
			out = append(out, r)
		}
	}
	return out
}

// loggerFor prefers the tick-scoped logger carried by ctx.
func loggerFor(ctx context.Context, fallback types.Logger) types.Logger {
	if l := types.LoggerFromContext(ctx); l != nil {
		return l
	}
	return fallback
}
