package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(4, 0, nil)

	var done int64
	tasks := make([]Task, 20)
	for i := range tasks {
		tasks[i] = Task{Name: "count", Run: func(ctx context.Context) error {
			atomic.AddInt64(&done, 1)
			return nil
		}}
	}

	require.NoError(t, pool.Run(context.Background(), tasks))
	assert.Equal(t, int64(20), done)
}

func TestPoolRetriesFailedTask(t *testing.T) {
	pool := NewPool(1, 2, nil)

	attempts := 0
	tasks := []Task{{Name: "flaky", Run: func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}}}

	require.NoError(t, pool.Run(context.Background(), tasks))
	assert.Equal(t, 3, attempts)
}

func TestPoolReturnsFirstError(t *testing.T) {
	pool := NewPool(2, 0, nil)

	boom := errors.New("boom")
	var mu sync.Mutex
	ran := 0
	tasks := []Task{
		{Name: "ok", Run: func(ctx context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}},
		{Name: "bad", Run: func(ctx context.Context) error {
			return boom
		}},
		{Name: "ok", Run: func(ctx context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}},
	}

	err := pool.Run(context.Background(), tasks)
	require.ErrorIs(t, err, boom)
	// Remaining tasks still drain after a failure.
	assert.Equal(t, 2, ran)
}

func TestPoolStopsFeedingOnCancel(t *testing.T) {
	pool := NewPool(1, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := 0
	tasks := []Task{{Name: "never", Run: func(ctx context.Context) error {
		ran++
		return nil
	}}}

	err := pool.Run(ctx, tasks)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ran)
}
