package status

import (
	"context"
	"fmt"
)

// LoopStatus is the view of a scheduler loop the health check needs.
type LoopStatus interface {
	Name() string
	Done() <-chan struct{}
}

// LoopProbe fails once its loop has exited.
type LoopProbe struct {
	Loop LoopStatus
}

func (p LoopProbe) Name() string { return "loop:" + p.Loop.Name() }

func (p LoopProbe) Check(context.Context) error {
	select {
	case <-p.Loop.Done():
		return fmt.Errorf("loop %s is not running", p.Loop.Name())
	default:
		return nil
	}
}

// BreakerStatus reports a circuit breaker state name.
type BreakerStatus interface {
	State() string
}

// BreakerProbe fails while the delivery breaker is open.
type BreakerProbe struct {
	Breaker BreakerStatus
}

func (BreakerProbe) Name() string { return "delivery_breaker" }

func (p BreakerProbe) Check(context.Context) error {
	if state := p.Breaker.State(); state == "open" {
		return fmt.Errorf("delivery circuit breaker is %s", state)
	}
	return nil
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseProbe pings the database.
type DatabaseProbe struct {
	DB Pinger
}

func (DatabaseProbe) Name() string { return "database" }

func (p DatabaseProbe) Check(ctx context.Context) error {
	if err := p.DB.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
