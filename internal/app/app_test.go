package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding/internal/config"
	"onboarding/internal/scheduler"
	"onboarding/internal/types"
)

type nopTransport struct{}

func (nopTransport) ResumeConversationAndSend(context.Context, types.ConversationRef, types.Payload) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "local",
		Bot: config.BotConfig{
			AppBaseURI: "https://onboarding.example.com",
			ServiceURL: "https://smba.trafficmanager.net/amer/",
			HRTeamID:   "19:hr@thread.tacv2",
		},
		Schedule: config.ScheduleConfig{
			LearningPlanWeeks:    4,
			LearningPlanWeekday:  "Monday",
			PairUpDelayDays:      2,
			NewHireRetentionDays: 30,
			SurveyBatchSize:      5,
			SurveyFrequency:      "weekly",
			SurveyInterval:       24 * time.Hour,
		},
		Retry: config.RetryConfig{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	}
}

func TestNewApp_RegistersEveryTask(t *testing.T) {
	a := NewApp(testConfig(), Deps{Transport: nopTransport{}, Logger: nopLogger{}})

	for _, task := range []scheduler.TaskType{
		scheduler.TaskLearningPlan,
		scheduler.TaskPairUp,
		scheduler.TaskSurvey,
		scheduler.TaskFeedback,
	} {
		job, err := a.Jobs.Lookup(task)
		require.NoError(t, err, task)
		assert.Equal(t, string(task), job.Name())
	}
	assert.NotNil(t, a.Locks)
	assert.NotNil(t, a.History)
	assert.Nil(t, a.MetricsHandler)
	a.Close()
}

func TestLoops_FixedAndCronIntervals(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.SurveyCron = "0 9 * * 1"
	a := NewApp(cfg, Deps{Transport: nopTransport{}, Logger: nopLogger{}})

	loops, err := a.Loops()
	require.NoError(t, err)
	require.Len(t, loops, 3)
	assert.Equal(t, "learning_plan", loops[0].Name())
	assert.Equal(t, "pair_up", loops[1].Name())
	assert.Equal(t, "survey", loops[2].Name())
}

func TestLoops_InvalidCron(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.PairUpCron = "every tuesday"
	a := NewApp(cfg, Deps{Transport: nopTransport{}, Logger: nopLogger{}})

	_, err := a.Loops()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAIRUP_CRON")
}

func TestLoops_RejectsIntervalsThatNeverSleep(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule.SurveyInterval = 0
	_, err := NewApp(cfg, Deps{Transport: nopTransport{}, Logger: nopLogger{}}).Loops()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SURVEY_INTERVAL")

	cfg = testConfig()
	cfg.Schedule.SurveyCron = "0 0 30 2 *"
	_, err = NewApp(cfg, Deps{Transport: nopTransport{}, Logger: nopLogger{}}).Loops()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SURVEY_CRON")
}

func TestInterval(t *testing.T) {
	p, err := interval("", 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, p.Next(time.Now()))

	p, err = interval("@daily", time.Hour)
	require.NoError(t, err)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 15*time.Hour, p.Next(now))
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(NewLogger("warn", &buf)).With("job", "pair_up")

	logger.Info("dropped")
	logger.Warn("kept", "recipient_id", "u1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "pair_up", line["job"])
	assert.Equal(t, "u1", line["recipient_id"])
	assert.Equal(t, "WARN", line["level"])
}
