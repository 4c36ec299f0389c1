// Package scheduler runs the onboarding notification jobs: the weekly
// learning plan, the pair-up introduction, and the new hire survey with its
// HR feedback follow-up.
//
// Each job is a "run one tick" operation. Long-running processes wrap jobs
// in a Loop; one-shot invocations (Lambda, CLI) call Job.Run directly with a
// JobPayload.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onboarding/internal/types"
)

// TaskType identifies a job for one-shot invocation.
type TaskType string

const (
	TaskLearningPlan TaskType = types.JobLearningPlan
	TaskPairUp       TaskType = types.JobPairUp
	TaskSurvey       TaskType = types.JobSurvey
	TaskFeedback     TaskType = types.JobFeedback
)

// JobPayload is the JSON payload of a one-shot invocation:
//
//	{
//	  "task": "pair_up",
//	  "reference_time": "2026-03-02T09:00:00Z"  // optional
//	}
type JobPayload struct {
	Task TaskType `json:"task"`
	// ReferenceTime overrides "now" for manual runs and backfills. If nil,
	// the clock's current time is used.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}

// Job is one scheduled notification job.
type Job interface {
	Name() string
	// Run executes a single tick at now and returns the number of
	// notifications delivered. Per-recipient failures are logged and
	// counted out; only failures that stop the whole tick are returned.
	Run(ctx context.Context, now time.Time) (int, error)
}

// Sender delivers one payload to one recipient. *core.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, recipient types.Recipient, payload types.Payload) bool
}

// Registry resolves task types to jobs.
type Registry map[TaskType]Job

// NewRegistry indexes jobs by name.
func NewRegistry(jobs ...Job) Registry {
	r := make(Registry, len(jobs))
	for _, j := range jobs {
		r[TaskType(j.Name())] = j
	}
	return r
}

// Lookup returns the job registered for task.
func (r Registry) Lookup(task TaskType) (Job, error) {
	if task == "" {
		return nil, fmt.Errorf("empty task type in job payload")
	}
	job, ok := r[task]
	if !ok {
		return nil, fmt.Errorf("unknown task type: %q", task)
	}
	return job, nil
}

// Sequence runs jobs one after another as a single job. A failing job does
// not prevent the following ones from running.
type Sequence struct {
	name string
	jobs []Job
}

// NewSequence creates a Sequence named name.
func NewSequence(name string, jobs ...Job) *Sequence {
	return &Sequence{name: name, jobs: jobs}
}

func (s *Sequence) Name() string { return s.name }

func (s *Sequence) Run(ctx context.Context, now time.Time) (int, error) {
	total := 0
	var errs []error
	for _, job := range s.jobs {
		n, err := job.Run(ctx, now)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return total, errors.Join(errs...)
}

// TickOf adapts a Job to the Loop tick signature.
func TickOf(job Job) TickFunc {
	return func(ctx context.Context, now time.Time) error {
		_, err := job.Run(ctx, now)
		return err
	}
}
