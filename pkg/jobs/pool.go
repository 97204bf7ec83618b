package jobs

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one unit of work submitted to a pool run.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool executes batches of tasks across a fixed number of workers. Run blocks
// until the batch drains, so callers keep request/response semantics while the
// tasks themselves overlap.
type Pool struct {
	workers int
	retries int
	logger  *zap.Logger
}

// NewPool builds a pool. Retries is the number of re-attempts per failed
// task, not counting the first attempt.
func NewPool(workers, retries int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{workers: workers, retries: retries, logger: logger}
}

// Run executes every task and returns the first error observed once all
// workers have drained. Cancelling the context stops feeding further tasks;
// tasks already picked up finish their attempts.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan Task)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				if err := p.attempt(ctx, task); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, task := range tasks {
		if ctx.Err() != nil {
			break feed
		}
		select {
		case <-ctx.Done():
			break feed
		case taskCh <- task:
		}
	}
	close(taskCh)
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return firstErr
}

func (p *Pool) attempt(ctx context.Context, task Task) error {
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err = task.Run(ctx); err == nil {
			return nil
		}
		if attempt < p.retries {
			p.logger.Sugar().Warnw("task failed, retrying", "task", task.Name, "attempt", attempt+1, "error", err)
		}
	}
	p.logger.Sugar().Errorw("task exhausted retries", "task", task.Name, "error", err)
	return err
}
