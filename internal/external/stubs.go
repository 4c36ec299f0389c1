package external

import (
	"context"

	"onboarding/internal/types"
)

// StubTransport implements types.Transport by logging each delivery and
// reporting success. Used for dry runs and local environments without bot
// credentials.
type StubTransport struct {
	logger types.Logger
}

var _ types.Transport = (*StubTransport)(nil)

// NewStubTransport creates a new StubTransport.
func NewStubTransport(logger types.Logger) *StubTransport {
	return &StubTransport{logger: logger}
}

func (s *StubTransport) ResumeConversationAndSend(ctx context.Context, ref types.ConversationRef, payload types.Payload) error {
	s.logger.Info("stub: ResumeConversationAndSend called",
		"conversation_id", ref.ConversationID,
		"content_type", payload.ContentType,
		"summary", payload.Summary,
		"bytes", len(payload.Content),
	)
	return nil
}
