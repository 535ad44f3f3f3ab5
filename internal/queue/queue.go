// Package queue runs provisioning tasks without blocking the request path.
//
// The queue is an explicitly constructed object owned by whoever wires the
// process; there is no package-level instance. Tasks run concurrently with no
// per-(branch, resource) mutual exclusion, so two tasks touching the same
// branch can append events out of causal order. That matches the source
// system's behavior and is documented in DESIGN.md.
package queue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/branchstack/engine/pkg/logger"
)

// Task is an enqueuable unit of provisioning work. A non-nil return means the
// task failed; by the time a task built by the service layer returns an error
// it has already recorded the corresponding error event.
type Task func(ctx context.Context) error

// Queue executes tasks on goroutines, isolating each task's failure from the
// others and from the caller. No task is cancelled or retried once started.
type Queue struct {
	sem *semaphore.Weighted // nil means unbounded
	wg  sync.WaitGroup
}

// New returns a queue that runs at most concurrency tasks at once.
// concurrency <= 0 means unbounded.
func New(concurrency int) *Queue {
	q := &Queue{}
	if concurrency > 0 {
		q.sem = semaphore.NewWeighted(int64(concurrency))
	}
	return q
}

// Submit enqueues a task and returns immediately. Errors and panics are
// caught at the queue boundary; they never reach a global failure handler.
func (q *Queue) Submit(task Task) {
	q.wg.Add(1)
	tasksSubmitted.Inc()
	tasksInFlight.Inc()

	go func() {
		defer q.wg.Done()
		defer tasksInFlight.Dec()

		ctx := context.Background()
		if q.sem != nil {
			if err := q.sem.Acquire(ctx, 1); err != nil {
				tasksFailed.Inc()
				logger.L().Error("task slot acquire failed", zap.Error(err))
				return
			}
			defer q.sem.Release(1)
		}

		if err := q.run(ctx, task); err != nil {
			tasksFailed.Inc()
			logger.L().Error("task failed", zap.Error(err))
		}
	}()
}

func (q *Queue) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
		}
	}()
	return task(ctx)
}

// Drain blocks until every submitted task has completed, including tasks
// submitted by tasks that were already running. The ctx bounds how long the
// caller is willing to wait.
func (q *Queue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain interrupted: %w", ctx.Err())
	}
}
