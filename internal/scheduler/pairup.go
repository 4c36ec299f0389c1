package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"onboarding/internal/notifications/core"
	"onboarding/internal/pairing"
	"onboarding/internal/types"
)

// PairUpNotifier introduces one tenured employee to one new hire per tick.
type PairUpNotifier struct {
	directory     types.RecipientDirectory
	renderer      types.CardRenderer
	selector      *pairing.Selector
	sender        Sender
	retentionDays int
	logger        types.Logger
}

var _ Job = (*PairUpNotifier)(nil)

func NewPairUpNotifier(
	directory types.RecipientDirectory,
	renderer types.CardRenderer,
	selector *pairing.Selector,
	sender Sender,
	retentionDays int,
	logger types.Logger,
) *PairUpNotifier {
	return &PairUpNotifier{
		directory:     directory,
		renderer:      renderer,
		selector:      selector,
		sender:        sender,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// introduction is one direction of a pair-up: the card describing the
// partner, addressed to the other member.
type introduction struct {
	to   types.Recipient
	card types.Payload
}

func (n *PairUpNotifier) Name() string { return types.JobPairUp }

// Run draws a pair from the opted-in recipients and sends each member a card
// introducing the other. Both sends run concurrently and are joined before
// the outcome is logged.
func (n *PairUpNotifier) Run(ctx context.Context, now time.Time) (int, error) {
	logger := loggerFor(ctx, n.logger)

	candidates, err := n.directory.GetOptedInForPairing(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading pair-up candidates: %w", err)
	}

	pair, ok := n.selector.SelectPair(candidates, n.retentionDays, now)
	if !ok {
		return 0, nil
	}

	tenuredCard, err := n.renderer.RenderPairUpCard(pair.Tenured, pair.Fresh)
	if err != nil {
		return 0, fmt.Errorf("rendering pair-up card: %w", err)
	}
	freshCard, err := n.renderer.RenderPairUpCard(pair.Fresh, pair.Tenured)
	if err != nil {
		return 0, fmt.Errorf("rendering pair-up card: %w", err)
	}

	deliveries := []introduction{
		{to: pair.Tenured, card: tenuredCard},
		{to: pair.Fresh, card: freshCard},
	}
	var delivered atomic.Int32
	core.RunBatchConcurrent(ctx, deliveries, len(deliveries), func(ctx context.Context, d introduction) {
		if n.sender.Send(ctx, d.to, d.card) {
			delivered.Add(1)
		}
	})

	logger.Info("pair-up: notifications sent",
		"tenured_id", pair.Tenured.ID,
		"fresh_id", pair.Fresh.ID,
		"delivered", delivered.Load(),
	)
	return int(delivered.Load()), nil
}
