package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueRunsEveryJob(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]string{}
	q := NewProcessorQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen[job.Seq] = job.Name
		if job.Seq%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}, quiet(), WithWorkers(3), WithQueueSize(2))

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(ctx, Job{Path: "/in/inv.pdf", Seq: i}))
	}
	q.Shutdown(ctx)

	require.Len(t, seen, 10)
	assert.Equal(t, "inv.pdf", seen[0])
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "late.pdf"}), ErrQueueClosed)
}

func TestQueueTimeoutAndPanic(t *testing.T) {
	var timedOut, after atomic.Int32
	q := NewProcessorQueue(func(ctx context.Context, job Job) error {
		switch job.Name {
		case "slow":
			<-ctx.Done()
			timedOut.Add(1)
			return ctx.Err()
		case "panic":
			panic("bad page")
		}
		after.Add(1)
		return nil
	}, quiet(), WithWorkers(1), WithProcessTimeout(10*time.Millisecond))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Name: "slow"}))
	require.NoError(t, q.Enqueue(ctx, Job{Name: "panic"}))
	require.NoError(t, q.Enqueue(ctx, Job{Name: "fine"}))
	q.Shutdown(ctx)

	assert.EqualValues(t, 1, timedOut.Load())
	assert.EqualValues(t, 1, after.Load())
}

func TestShutdownHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewProcessorQueue(func(context.Context, Job) error {
		<-release
		return nil
	}, quiet(), WithWorkers(1))
	defer close(release)

	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "stuck"}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	q.Shutdown(ctx)
	assert.Less(t, time.Since(start), time.Second)
}
