package janitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	ages  []time.Duration
	err   error
}

func (s *countingSweeper) SweepAbandoned(_ context.Context, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ages = append(s.ages, olderThan)
	return 2, s.err
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOnce(t *testing.T) {
	s := &countingSweeper{}
	j := New(s, 0, 0, quiet())
	assert.Equal(t, 2, j.Once(context.Background()))
	require.Len(t, s.ages, 1)
	assert.Equal(t, 24*time.Hour, s.ages[0])

	s.err = errors.New("db down")
	assert.Equal(t, 2, j.Once(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, j.Once(ctx))
	assert.Equal(t, 2, s.count())
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	s := &countingSweeper{}
	j := New(s, time.Hour, 5*time.Millisecond, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
