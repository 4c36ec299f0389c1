package core

import (
	"context"
	"sync"
	"time"

	"onboarding/internal/types"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

// recordingLogger collects entries across With-derived loggers.
type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	with    []any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]any{}, l.with...), args...)
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: all})
}

func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) With(args ...any) types.Logger {
	return &recordingLogger{mu: l.mu, entries: l.entries, with: append(append([]any{}, l.with...), args...)}
}

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// immediateTimer fires as soon as it is started and records requested waits.
type immediateTimer struct {
	c     chan time.Time
	waits []time.Duration
}

func (t *immediateTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Time{}
}

func (t *immediateTimer) Stop() {}

func (t *immediateTimer) C() <-chan time.Time { return t.c }

// scriptedTransport returns the scripted errors in order per conversation,
// then succeeds. fail forces a fixed error for a conversation.
type scriptedTransport struct {
	mu     sync.Mutex
	script map[string][]error
	fail   map[string]error
	calls  map[string]int
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{
		script: make(map[string][]error),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (s *scriptedTransport) ResumeConversationAndSend(_ context.Context, ref types.ConversationRef, _ types.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[ref.ConversationID]++
	if err, ok := s.fail[ref.ConversationID]; ok {
		return err
	}
	if queue := s.script[ref.ConversationID]; len(queue) > 0 {
		s.script[ref.ConversationID] = queue[1:]
		return queue[0]
	}
	return nil
}

func (s *scriptedTransport) callsFor(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[conversationID]
}

type recordingMetrics struct {
	mu         sync.Mutex
	deliveries map[MetricResult]int
	ticks      int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{deliveries: make(map[MetricResult]int)}
}

func (m *recordingMetrics) RecordDelivery(_ context.Context, _ string, r MetricResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[r]++
}

func (m *recordingMetrics) RecordLatency(context.Context, string, time.Duration) {}

func (m *recordingMetrics) RecordTick(context.Context, string, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
}

func recipient(id string) types.Recipient {
	return types.Recipient{
		ID:             id,
		ServiceURL:     "https://smba.example.net/amer/",
		ConversationID: "conv-" + id,
	}
}

func card() types.Payload {
	return types.Payload{ContentType: types.AdaptiveCardContentType, Content: []byte(`{"type":"AdaptiveCard"}`), Summary: "test"}
}

func deliveryErr(status int) error {
	return &types.DeliveryError{StatusCode: status, Message: "scripted"}
}
