package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqldesk/internal/domain"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	t.Parallel()
	p := NewWorkerPool(2, 8, nil)

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, p.Enqueue(func(context.Context) {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()
	assert.EqualValues(t, 5, count.Load())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestWorkerPool_FullBufferRejects(t *testing.T) {
	t.Parallel()
	p := NewWorkerPool(1, 1, nil)

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Enqueue(func(context.Context) {
		close(started)
		<-block
	}))
	<-started

	// Buffer slot one fills; the next submission must be rejected, not block.
	require.NoError(t, p.Enqueue(func(context.Context) {}))
	err := p.Enqueue(func(context.Context) {})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)

	close(block)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func TestWorkerPool_ShutdownDrains(t *testing.T) {
	t.Parallel()
	p := NewWorkerPool(1, 8, nil)

	var count atomic.Int64
	for i := 0; i < 4; i++ {
		require.NoError(t, p.Enqueue(func(context.Context) {
			time.Sleep(10 * time.Millisecond)
			count.Add(1)
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
	assert.EqualValues(t, 4, count.Load(), "shutdown must drain enqueued tasks")

	err := p.Enqueue(func(context.Context) {})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestWorkerPool_EnqueueDuringShutdownDoesNotPanic(t *testing.T) {
	t.Parallel()

	// Enqueue racing Shutdown must resolve to an accepted task or a
	// rejection error, never a send on the closed task channel.
	for i := 0; i < 200; i++ {
		p := NewWorkerPool(2, 4, nil)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 16; j++ {
					err := p.Enqueue(func(context.Context) {})
					if err != nil {
						assert.IsType(t, &domain.ValidationError{}, err)
					}
				}
			}()
		}

		close(start)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		require.NoError(t, p.Shutdown(ctx))
		cancel()
		wg.Wait()
	}
}

func TestWorkerPool_PanicDoesNotKillWorker(t *testing.T) {
	t.Parallel()
	p := NewWorkerPool(1, 8, nil)

	require.NoError(t, p.Enqueue(func(context.Context) { panic("boom") }))

	done := make(chan struct{})
	require.NoError(t, p.Enqueue(func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panicking task")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}
