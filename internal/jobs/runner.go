package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/techlearn-backend/internal/observability"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

var ErrShutdown = errors.New("runner is shut down")

// Task is the handle of one submitted unit of work.
type Task struct {
	Name string
	done chan struct{}
	err  error
}

// Done is closed once the task has finished, failed, or been cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err is the task's outcome. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type panicError struct {
	Val   any
	Stack []byte
}

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// Runner executes detached tasks with bounded concurrency and a per-task timeout.
// Tasks are independent of the request that submitted them.
type Runner struct {
	log     *logger.Logger
	sem     *semaphore.Weighted
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRunner(baseLog *logger.Logger, concurrency int, timeout time.Duration) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		log:     baseLog.With("component", "TaskRunner"),
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Submit starts fn in its own goroutine. The returned task always completes,
// including when the runner is already shut down.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) *Task {
	t := &Task{Name: name, done: make(chan struct{})}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		t.err = ErrShutdown
		close(t.done)
		return t
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer close(t.done)
		t.err = r.run(name, fn)
		result := "ok"
		if t.err != nil {
			result = "error"
			r.log.Warn("task failed", "task", name, "error", t.err)
		}
		observability.Current().IncTask(name, result)
	}()
	return t
}

func (r *Runner) run(name string, fn func(ctx context.Context) error) (err error) {
	if err := r.sem.Acquire(r.base, 1); err != nil {
		return ErrShutdown
	}
	defer r.sem.Release(1)

	ctx := r.base
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			pe := &panicError{Val: rec, Stack: debug.Stack()}
			r.log.Error("task panic", "task", name, "panic", rec, "stack", string(pe.Stack))
			err = pe
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting tasks, cancels running ones and waits for them until ctx ends.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
