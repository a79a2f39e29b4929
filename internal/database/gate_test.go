package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_FailsFastBeyondQueue(t *testing.T) {
	gate := NewGate(1, 1, time.Second)
	require.EqualValues(t, 2, gate.Capacity())

	running, err := gate.Enter(context.Background())
	require.NoError(t, err)

	queued := make(chan error, 1)
	go func() {
		release, err := gate.Enter(context.Background())
		if err == nil {
			release()
		}
		queued <- err
	}()
	time.Sleep(50 * time.Millisecond)

	started := time.Now()
	_, err = gate.Enter(context.Background())
	assert.ErrorIs(t, err, ErrPoolSaturated)
	assert.Less(t, time.Since(started), 500*time.Millisecond)

	running()
	select {
	case err := <-queued:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("queued caller was not admitted")
	}
}

func TestGate_QueuedCallerGivesUpAfterWait(t *testing.T) {
	gate := NewGate(1, 1, 30*time.Millisecond)

	running, err := gate.Enter(context.Background())
	require.NoError(t, err)
	defer running()

	started := time.Now()
	_, err = gate.Enter(context.Background())
	assert.ErrorIs(t, err, ErrPoolSaturated)
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)
}

func TestGate_QueuedCallerHonoursCancellation(t *testing.T) {
	gate := NewGate(1, 1, 0)

	running, err := gate.Enter(context.Background())
	require.NoError(t, err)
	defer running()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = gate.Enter(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned wait gave its queue slot back.
	go func() {
		time.Sleep(10 * time.Millisecond)
		running()
	}()
	release, err := gate.Enter(context.Background())
	require.NoError(t, err)
	release()
}

func TestGate_ConcurrentAdmissionNeverExceedsCapacity(t *testing.T) {
	gate := NewGate(3, 2, time.Second)

	var (
		mu       sync.Mutex
		inside   int
		peak     int
		rejected int
		wg       sync.WaitGroup
		start    = make(chan struct{})
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			release, err := gate.Enter(context.Background())
			if err != nil {
				mu.Lock()
				rejected++
				mu.Unlock()
				return
			}
			mu.Lock()
			inside++
			if inside > peak {
				peak = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, peak, 3)
	assert.Equal(t, 0, inside)
}
