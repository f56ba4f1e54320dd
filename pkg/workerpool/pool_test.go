package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsTasks(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.SubmitWait(func() {
			defer wg.Done()
			ran.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(20), ran.Load())
}

func TestSubmitReturnsErrPoolFull(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	block := make(chan struct{})
	defer close(block)

	// Occupy the single worker, then fill the queue (buffer = 2×size).
	require.NoError(t, p.Submit(func() { <-block }))
	time.Sleep(10 * time.Millisecond)

	var errFull bool
	for i := 0; i < 10; i++ {
		if err := p.Submit(func() {}); err != nil {
			assert.ErrorIs(t, err, ErrPoolFull)
			errFull = true
			break
		}
	}
	assert.True(t, errFull, "pool never reported full")
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	p := New(1)

	var ran atomic.Int32
	for i := 0; i < 2; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}))
	}

	p.Shutdown()
	assert.Equal(t, int32(2), ran.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := New(1)
	p.Shutdown()

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	assert.ErrorIs(t, p.SubmitWait(func() {}), ErrPoolClosed)

	// Shutdown is idempotent.
	p.Shutdown()
}
