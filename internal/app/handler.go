package app

import (
	"context"
	"fmt"
	"time"

	"onboarding/internal/scheduler"
	"onboarding/internal/types"
)

// LockTTL spans a whole lock window. The lock id names one clock hour, so a
// lease taken at any minute of that hour outlives the hour itself.
const LockTTL = time.Hour

// JobLocker abstracts the distributed lock acquisition.
type JobLocker interface {
	Acquire(ctx context.Context, lockID string, workerID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, lockID string, workerID string) error
}

// JobHistorian records job runs.
type JobHistorian interface {
	Start(ctx context.Context, jobType string) (int64, error)
	Finish(ctx context.Context, id int64, status string, delivered int, err error) error
}

// JobHandler runs one tick of one job on demand. It is the body of the
// Lambda multiplexer and of `onboardctl run`.
type JobHandler struct {
	Jobs       scheduler.Registry
	JobLock    JobLocker
	JobHistory JobHistorian
	WorkerID   string
	Clock      types.Clock
	Logger     types.Logger
}

// Handle runs payload.Task once:
//  1. Determine the reference time.
//  2. Acquire the lock "task:YYYY-MM-DDTHH" so a second invocation within
//     the same hour does not send twice.
//  3. Record the start in job_history.
//  4. Run the job.
//  5. Record completion with status and delivered count.
//  6. Release the lock if the run failed before delivering anything, so a
//     retry in the same hour can proceed. Otherwise it is held until expiry.
func (h *JobHandler) Handle(ctx context.Context, payload scheduler.JobPayload) (string, error) {
	now := h.now()
	if payload.ReferenceTime != nil {
		now = payload.ReferenceTime.UTC()
	}

	job, err := h.Jobs.Lookup(payload.Task)
	if err != nil {
		return "", err
	}

	task := string(payload.Task)
	logger := h.Logger.With("task", task, "worker_id", h.WorkerID)
	logger.Info("job invoked", "reference_time", now.Format(time.RFC3339))

	lockID := fmt.Sprintf("%s:%s", payload.Task, now.Truncate(time.Hour).Format("2006-01-02T15"))
	acquired, err := h.JobLock.Acquire(ctx, lockID, h.WorkerID, LockTTL)
	if err != nil {
		logger.Error("failed to acquire job lock", "lock_id", lockID, "error", err.Error())
		return "", fmt.Errorf("acquiring job lock %s: %w", lockID, err)
	}
	if !acquired {
		logger.Info("job lock held by another worker", "lock_id", lockID)
		return fmt.Sprintf("skipped: lock %s held by another worker", lockID), nil
	}

	// History is best effort; a zero id skips Finish.
	historyID, err := h.JobHistory.Start(ctx, task)
	if err != nil {
		logger.Error("failed to start job history", "error", err.Error())
		historyID = 0
	}

	ctx = types.WithJob(types.WithLogger(ctx, logger), task)
	delivered, runErr := job.Run(ctx, now)

	status := "success"
	if runErr != nil {
		status = "failed"
	}
	if historyID != 0 {
		if err := h.JobHistory.Finish(ctx, historyID, status, delivered, runErr); err != nil {
			logger.Error("failed to finish job history", "job_history_id", historyID, "error", err.Error())
		}
	}

	if runErr != nil {
		logger.Error("job failed", "error", runErr.Error(), "delivered_before_error", delivered)
		if delivered == 0 {
			if err := h.JobLock.Release(ctx, lockID, h.WorkerID); err != nil {
				logger.Error("failed to release job lock", "lock_id", lockID, "error", err.Error())
			}
		}
		return "", fmt.Errorf("task %s failed: %w", task, runErr)
	}

	result := fmt.Sprintf("task %s complete: %d notifications delivered", task, delivered)
	logger.Info(result, "delivered", delivered)
	return result, nil
}

func (h *JobHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
