package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

var ErrPoolSaturated = errors.New("database pool saturated")

// Gate bounds the number of callers allowed to compete for pool connections.
// Up to maxConns callers run at once, the next queueLimit wait for a slot for
// at most wait, and anyone beyond that is turned away immediately.
type Gate struct {
	active   *semaphore.Weighted
	admitted *semaphore.Weighted
	size     int64
	wait     time.Duration
}

func NewGate(maxConns, queueLimit int, wait time.Duration) *Gate {
	if maxConns < 1 {
		maxConns = 1
	}
	if queueLimit < 0 {
		queueLimit = 0
	}
	size := int64(maxConns + queueLimit)
	return &Gate{
		active:   semaphore.NewWeighted(int64(maxConns)),
		admitted: semaphore.NewWeighted(size),
		size:     size,
		wait:     wait,
	}
}

// Enter admits the caller or fails with ErrPoolSaturated. Only the wait for a
// running slot is bounded; once admitted the caller keeps its own context.
// release must be called exactly once after a nil error.
func (g *Gate) Enter(ctx context.Context) (func(), error) {
	if !g.admitted.TryAcquire(1) {
		return nil, ErrPoolSaturated
	}

	if err := g.acquire(ctx); err != nil {
		g.admitted.Release(1)
		return nil, err
	}

	return func() {
		g.active.Release(1)
		g.admitted.Release(1)
	}, nil
}

func (g *Gate) acquire(ctx context.Context) error {
	if g.active.TryAcquire(1) {
		return nil
	}

	waitCtx := ctx
	if g.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.wait)
		defer cancel()
	}

	if err := g.active.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: waited %s", ErrPoolSaturated, g.wait)
	}
	return nil
}

func (g *Gate) Capacity() int64 {
	return g.size
}
