package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"onboarding/internal/notifications/core"
	"onboarding/internal/types"
)

// TickFunc performs one activation of a Loop.
type TickFunc func(ctx context.Context, now time.Time) error

// IntervalPolicy decides how long a Loop sleeps after a tick.
type IntervalPolicy interface {
	Next(now time.Time) time.Duration
}

// FixedInterval sleeps the same duration after every tick.
type FixedInterval time.Duration

func (f FixedInterval) Next(time.Time) time.Duration { return time.Duration(f) }

// CronInterval sleeps until the next activation of a cron schedule.
type CronInterval struct {
	schedule cron.Schedule
}

// NewCronInterval parses a standard five-field cron expression or a
// descriptor such as "@daily". Expressions that never fire, such as
// "0 0 30 2 *", are rejected.
func NewCronInterval(expr string) (CronInterval, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return CronInterval{}, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	if schedule.Next(time.Now()).IsZero() {
		return CronInterval{}, fmt.Errorf("cron %q has no upcoming activation", expr)
	}
	return CronInterval{schedule: schedule}, nil
}

// Next returns zero when the schedule has no activation after now.
func (c CronInterval) Next(now time.Time) time.Duration {
	next := c.schedule.Next(now)
	if next.IsZero() {
		return 0
	}
	return next.Sub(now)
}

// MinSleep replaces a non-positive interval so a misconfigured policy
// cannot make the loop tick back to back.
const MinSleep = time.Minute

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LoopState is the observable state of a Loop.
type LoopState int32

const (
	LoopRunning LoopState = iota
	LoopSleeping
)

func (s LoopState) String() string {
	if s == LoopSleeping {
		return "sleeping"
	}
	return "running"
}

// Runner is a background activity that can be started and stopped.
type Runner interface {
	Start(ctx context.Context)
	Stop()
}

// Loop wakes, runs its tick, and sleeps for the interval, until its context
// is cancelled. A tick's error or panic is logged and never ends the loop.
// Cancellation is observed before each tick and during the sleep; a running
// tick is not interrupted.
type Loop struct {
	name     string
	tick     TickFunc
	interval IntervalPolicy
	clock    types.Clock
	sleep    Sleeper
	metrics  core.NotificationMetrics
	logger   types.Logger

	state     atomic.Int32
	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ Runner = (*Loop)(nil)

// LoopOption configures optional Loop collaborators.
type LoopOption func(*Loop)

func WithLoopClock(c types.Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithSleeper replaces the timer-based sleep. Tests use it to step the loop.
func WithSleeper(s Sleeper) LoopOption {
	return func(l *Loop) { l.sleep = s }
}

func WithLoopMetrics(m core.NotificationMetrics) LoopOption {
	return func(l *Loop) { l.metrics = m }
}

// NewLoop creates a Loop in the Running state. It does nothing until Start.
func NewLoop(name string, tick TickFunc, interval IntervalPolicy, logger types.Logger, opts ...LoopOption) *Loop {
	l := &Loop{
		name:     name,
		tick:     tick,
		interval: interval,
		clock:    types.RealClock{},
		sleep:    timerSleep,
		metrics:  core.NoopMetrics{},
		logger:   logger.With("loop", name),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state.Store(int32(LoopRunning))
	return l
}

func (l *Loop) Name() string { return l.name }

// State reports whether the loop is running a tick or sleeping.
func (l *Loop) State() LoopState { return LoopState(l.state.Load()) }

// Done is closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Start launches the loop goroutine. The first tick runs immediately.
// Subsequent calls are no-ops.
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		l.cancel = cancel
		go l.run(ctx)
	})
}

// Stop cancels the loop and waits for it to exit. It is safe to call more
// than once, and before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		// An unstarted loop can never start after Stop.
		l.startOnce.Do(func() { close(l.done) })
		if l.cancel != nil {
			l.cancel()
		}
		<-l.done
	})
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	l.logger.Info("scheduler loop started")

	for {
		if ctx.Err() != nil {
			break
		}
		d := l.activate(ctx)
		if err := l.sleep(ctx, d); err != nil {
			break
		}
	}
	l.logger.Info("scheduler loop stopped")
}

// activate runs one tick and returns the sleep before the next. The state
// moves to Sleeping whatever the tick did.
func (l *Loop) activate(ctx context.Context) time.Duration {
	l.state.Store(int32(LoopRunning))
	now := l.clock.Now()
	tickID := uuid.NewString()
	logger := l.logger.With("request_id", tickID)

	ctx = types.WithRequestID(ctx, tickID)
	ctx = types.WithJob(ctx, l.name)
	ctx = types.WithLogger(ctx, logger)

	logger.Info("scheduler tick started", "tick_at", now.Format(time.RFC3339))
	err := l.runTick(ctx, now)
	l.metrics.RecordTick(ctx, l.name, l.clock.Now().Sub(now), err)
	if err != nil {
		logger.Error("scheduler tick failed", "error", err.Error())
	}

	l.state.Store(int32(LoopSleeping))
	next := l.interval.Next(l.clock.Now())
	if next <= 0 {
		logger.Error("scheduler interval is not positive, using minimum sleep",
			"next_in", next.String(),
			"min_sleep", MinSleep.String(),
		)
		next = MinSleep
	}
	logger.Info("scheduler loop sleeping", "next_in", next.String())
	return next
}

func (l *Loop) runTick(ctx context.Context, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()
	return l.tick(ctx, now)
}
