package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"onboarding/internal/notifications/core"
	"onboarding/internal/types"
)

// --- Logger ---

type logEntry struct {
	level string
	msg   string
}

type testLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newTestLogger() *testLogger {
	return &testLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *testLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level, msg})
}

func (l *testLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.add("error", msg) }
func (l *testLogger) With(...any) types.Logger   { return l }

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range *l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// --- Transport ---

type sendCall struct {
	conversationID string
	summary        string
}

// fakeTransport fails deliveries to conversations listed in failures with
// the given status; statuses are consumed one per attempt and the last one
// repeats.
type fakeTransport struct {
	mu       sync.Mutex
	calls    []sendCall
	failures map[string][]int
	events   *[]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failures: map[string][]int{}}
}

func (t *fakeTransport) failWith(conversationID string, statuses ...int) {
	t.failures[conversationID] = statuses
}

func (t *fakeTransport) ResumeConversationAndSend(_ context.Context, ref types.ConversationRef, payload types.Payload) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, sendCall{ref.ConversationID, payload.Summary})
	if t.events != nil {
		*t.events = append(*t.events, "send:"+ref.ConversationID)
	}
	statuses := t.failures[ref.ConversationID]
	if len(statuses) == 0 {
		return nil
	}
	status := statuses[0]
	if len(statuses) > 1 {
		t.failures[ref.ConversationID] = statuses[1:]
	}
	if status == 0 {
		delete(t.failures, ref.ConversationID)
		return nil
	}
	return &types.DeliveryError{StatusCode: status, Message: "scripted failure"}
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *fakeTransport) summariesFor(conversationID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, c := range t.calls {
		if c.conversationID == conversationID {
			out = append(out, c.summary)
		}
	}
	return out
}

// newSender builds a real dispatcher with an instant retry envelope.
func newSender(transport types.Transport, transient ...int) *core.Dispatcher {
	policy := core.NewRetryPolicy(transient...).WithEnvelope(2, 0, 0)
	return core.NewDispatcher(transport, newTestLogger()).For("test", policy)
}

// --- Renderer ---

type fakeRenderer struct {
	mu           sync.Mutex
	weeks        []int
	failWeek     int
	failFeedback bool
}

func payload(summary string) types.Payload {
	return types.Payload{
		ContentType: types.AdaptiveCardContentType,
		Content:     json.RawMessage(`{"type":"AdaptiveCard"}`),
		Summary:     summary,
	}
}

func (r *fakeRenderer) RenderLearningPlanCard(items []types.LearningPlanItem, week int) (types.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weeks = append(r.weeks, week)
	if week == r.failWeek {
		return types.Payload{}, fmt.Errorf("render failed")
	}
	return payload(fmt.Sprintf("week:%d:%d", week, len(items))), nil
}

func (r *fakeRenderer) RenderPairUpCard(recipient, partner types.Recipient) (types.Payload, error) {
	return payload(fmt.Sprintf("pairup:%s->%s", recipient.ID, partner.ID)), nil
}

func (r *fakeRenderer) RenderSurveyCard() (types.Payload, error) {
	return payload("survey"), nil
}

func (r *fakeRenderer) RenderFeedbackCard(now time.Time) (types.Payload, error) {
	if r.failFeedback {
		return types.Payload{}, fmt.Errorf("render failed")
	}
	return payload("feedback:" + now.Format("2006-01-02")), nil
}

// --- Directory and content ---

type fakeDirectory struct {
	byRole   map[types.Role][]types.Recipient
	optedIn  []types.Recipient
	byID     map[string]types.Recipient
	err      error
	getIDErr map[string]error
}

func newFakeDirectory(recipients ...types.Recipient) *fakeDirectory {
	d := &fakeDirectory{byRole: map[types.Role][]types.Recipient{}, byID: map[string]types.Recipient{}, getIDErr: map[string]error{}}
	for _, r := range recipients {
		d.byRole[r.Role] = append(d.byRole[r.Role], r)
		d.byID[r.ID] = r
		if r.OptedIn {
			d.optedIn = append(d.optedIn, r)
		}
	}
	return d
}

func (d *fakeDirectory) GetAllByRole(_ context.Context, role types.Role) ([]types.Recipient, error) {
	return d.byRole[role], d.err
}

func (d *fakeDirectory) GetOptedInForPairing(context.Context) ([]types.Recipient, error) {
	return d.optedIn, d.err
}

func (d *fakeDirectory) GetByID(_ context.Context, id string) (*types.Recipient, error) {
	if err := d.getIDErr[id]; err != nil {
		return nil, err
	}
	r, ok := d.byID[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (d *fakeDirectory) Upsert(_ context.Context, r types.Recipient) (bool, error) {
	d.byID[r.ID] = r
	return true, nil
}

type fakeContent struct {
	items    []types.LearningPlanItem
	itemsErr error
	pending  []types.IntroductionRecord
	upserted []types.IntroductionRecord
	events   *[]string
}

func (c *fakeContent) GetLearningPlanItems(context.Context) ([]types.LearningPlanItem, error) {
	return c.items, c.itemsErr
}

func (c *fakeContent) GetIntroductionRecordsPendingSurvey(context.Context) ([]types.IntroductionRecord, error) {
	return c.pending, nil
}

func (c *fakeContent) UpsertIntroduction(_ context.Context, rec types.IntroductionRecord) (bool, error) {
	c.upserted = append(c.upserted, rec)
	if c.events != nil {
		*c.events = append(*c.events, "upsert:"+rec.NewHireID)
	}
	return true, nil
}

// --- Fixtures ---

// monday is 2026-03-02, a Monday.
var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newHire(id string, enrolledDaysAgo int, now time.Time) types.Recipient {
	return types.Recipient{
		ID:             id,
		Name:           "New " + id,
		ServiceURL:     "https://smba.example/amer/",
		ConversationID: "conv-" + id,
		Role:           types.RoleNewHire,
		EnrolledAt:     now.Add(-time.Duration(enrolledDaysAgo)*24*time.Hour - time.Hour),
		OptedIn:        true,
	}
}
