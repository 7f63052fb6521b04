package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Task is the outcome of processing one input.
type Task[T any, R any] struct {
	Input   T
	Result  R
	Err     error
	Elapsed time.Duration
}

// ProcessFunc processes a single input. The context carries the task deadline.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs inputs through a fixed number of goroutines.
type Pool[T any, R any] struct {
	workers int
	timeout time.Duration
	process ProcessFunc[T, R]
}

// NewPool creates a pool. A timeout of zero disables the per-task deadline.
func NewPool[T any, R any](workers int, timeout time.Duration, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		timeout: timeout,
		process: fn,
	}
}

// Execute processes every input and returns one Task per input, at the
// input's index. Inputs never started because ctx ended carry ctx.Err().
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	started := make([]bool, len(inputs))
	indexCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range indexCh {
				results[idx] = p.run(ctx, inputs[idx])
				if err := results[idx].Err; err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break send
		case indexCh <- i:
			started[i] = true
		}
	}
	close(indexCh)
	wg.Wait()

	for i, ok := range started {
		if !ok {
			results[i] = Task[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
	}
	return results
}

func (p *Pool[T, R]) run(ctx context.Context, input T) Task[T, R] {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	result, err := p.process(ctx, input)
	return Task[T, R]{
		Input:   input,
		Result:  result,
		Err:     err,
		Elapsed: time.Since(start),
	}
}

// Batch splits items into consecutive slices of at most batchSize elements.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
