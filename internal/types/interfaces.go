package types

import (
	"context"
	"time"
)

// Logger defines the structured logging interface used throughout the service.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// RandSource yields uniform integers in [0, n). Implementations need not be
// safe for concurrent use.
type RandSource interface {
	IntN(n int) int
}

// RecipientDirectory is the store of bot users.
type RecipientDirectory interface {
	GetAllByRole(ctx context.Context, role Role) ([]Recipient, error)
	GetOptedInForPairing(ctx context.Context) ([]Recipient, error)
	// GetByID returns nil, nil when no recipient has the given id.
	GetByID(ctx context.Context, id string) (*Recipient, error)
	Upsert(ctx context.Context, r Recipient) (bool, error)
}

// ContentSource provides learning plan content and introduction records.
type ContentSource interface {
	// GetLearningPlanItems returns nil when no learning plan is configured.
	GetLearningPlanItems(ctx context.Context) ([]LearningPlanItem, error)
	GetIntroductionRecordsPendingSurvey(ctx context.Context) ([]IntroductionRecord, error)
	UpsertIntroduction(ctx context.Context, rec IntroductionRecord) (bool, error)
}

// CardRenderer builds the message payloads sent by the scheduled jobs.
type CardRenderer interface {
	RenderLearningPlanCard(items []LearningPlanItem, week int) (Payload, error)
	// RenderPairUpCard renders the card delivered to recipient introducing partner.
	RenderPairUpCard(recipient, partner Recipient) (Payload, error)
	RenderSurveyCard() (Payload, error)
	RenderFeedbackCard(now time.Time) (Payload, error)
}

// Transport delivers a payload into an existing conversation. Failures are
// returned as *DeliveryError so callers can classify them.
type Transport interface {
	ResumeConversationAndSend(ctx context.Context, ref ConversationRef, payload Payload) error
}
