package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ResultsKeepInputOrder(t *testing.T) {
	inputs := []int{5, 1, 4, 2, 3}
	pool := NewPool(3, 0, func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), inputs)
	require.Len(t, tasks, len(inputs))
	for i, task := range tasks {
		assert.NoError(t, task.Err)
		assert.Equal(t, inputs[i], task.Input)
		assert.Equal(t, inputs[i]*inputs[i], task.Result)
	}
}

func TestPool_ErrorsStayWithTheirTask(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool(2, 0, func(ctx context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4})
	assert.NoError(t, tasks[0].Err)
	assert.ErrorIs(t, tasks[1].Err, boom)
	assert.NoError(t, tasks[2].Err)
	assert.ErrorIs(t, tasks[3].Err, boom)
}

func TestPool_PerTaskTimeout(t *testing.T) {
	pool := NewPool(2, 20*time.Millisecond, func(ctx context.Context, slow bool) (string, error) {
		if !slow {
			return "fast", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	})

	tasks := pool.Execute(context.Background(), []bool{false, true, false})
	assert.Equal(t, "fast", tasks[0].Result)
	assert.ErrorIs(t, tasks[1].Err, context.DeadlineExceeded)
	assert.Equal(t, "fast", tasks[2].Result)
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	pool := NewPool(1, 0, func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n, ctx.Err()
	})

	tasks := pool.Execute(ctx, []int{1, 2, 3})
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.ErrorIs(t, task.Err, context.Canceled)
	}
	assert.Zero(t, calls.Load())
}

func TestPool_ClampsWorkers(t *testing.T) {
	pool := NewPool(0, 0, func(ctx context.Context, n int) (int, error) { return n, nil })
	tasks := pool.Execute(context.Background(), []int{7})
	assert.Equal(t, 7, tasks[0].Result)
}

func TestBatch(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{name: "even", items: []int{1, 2, 3, 4}, size: 2, want: [][]int{{1, 2}, {3, 4}}},
		{name: "remainder", items: []int{1, 2, 3}, size: 2, want: [][]int{{1, 2}, {3}}},
		{name: "zero size", items: []int{1, 2}, size: 0, want: [][]int{{1}, {2}}},
		{name: "empty", items: nil, size: 3, want: [][]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Batch(tt.items, tt.size))
		})
	}
}
