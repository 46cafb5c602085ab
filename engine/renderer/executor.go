package renderer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrExecutorClosed is returned when work is submitted to, or pending on, a closed executor.
var ErrExecutorClosed = errors.New("executor is closed")

// Executor runs GPU resource creation on the execution context a graphics API requires.
type Executor interface {
	// Run executes fn on the executor's context and waits for it to finish.
	//
	// Parameters:
	//   - ctx: cancels the wait for a slot; fn is skipped if ctx is done before it starts
	//   - fn: the work to run
	//
	// Returns:
	//   - error: the error returned by fn, ctx.Err(), or ErrExecutorClosed
	Run(ctx context.Context, fn func() error) error
}

// inlineExecutor runs work on the calling goroutine.
type inlineExecutor struct{}

var _ Executor = inlineExecutor{}

// NewInlineExecutor creates an Executor for backends that are safe to call from any goroutine.
//
// Returns:
//   - Executor: an executor that runs work immediately on the caller's goroutine
func NewInlineExecutor() Executor {
	return inlineExecutor{}
}

func (inlineExecutor) Run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// Task states. A task leaves taskPending exactly once, either claimed by Drain or abandoned by Run.
const (
	taskPending int32 = iota
	taskRunning
	taskAbandoned
)

// foregroundTask is one queued unit of work and its result channel.
type foregroundTask struct {
	ctx   context.Context
	fn    func() error
	done  chan error
	state *atomic.Int32
}

// foregroundExecutorImpl is the implementation of the ForegroundExecutor interface.
type foregroundExecutorImpl struct {
	tasks     chan foregroundTask
	closed    chan struct{}
	closeOnce sync.Once
	wake      func()
}

// ForegroundExecutor queues work from any goroutine and runs it on the single goroutine that
// calls Drain, typically the locked OS thread that owns the window and GPU device.
type ForegroundExecutor interface {
	Executor

	// Drain runs every queued task on the calling goroutine without blocking.
	//
	// Returns:
	//   - int: the number of tasks executed
	Drain() int

	// Close stops accepting work and fails every pending and future Run with ErrExecutorClosed.
	Close()
}

var _ ForegroundExecutor = &foregroundExecutorImpl{}

// ForegroundExecutorOption is a functional option for configuring a ForegroundExecutor.
type ForegroundExecutorOption func(*foregroundExecutorImpl)

// WithQueueSize sets how many tasks may be queued before Run blocks.
//
// Parameters:
//   - size: the queue capacity
//
// Returns:
//   - ForegroundExecutorOption: a function that applies the queue size
func WithQueueSize(size int) ForegroundExecutorOption {
	return func(e *foregroundExecutorImpl) {
		if size > 0 {
			e.tasks = make(chan foregroundTask, size)
		}
	}
}

// WithWakeFunc sets a function called after each task is queued, used to wake an event loop
// blocked waiting for window events (e.g., glfw.PostEmptyEvent).
//
// Parameters:
//   - wake: the wake function
//
// Returns:
//   - ForegroundExecutorOption: a function that applies the wake function
func WithWakeFunc(wake func()) ForegroundExecutorOption {
	return func(e *foregroundExecutorImpl) {
		e.wake = wake
	}
}

// NewForegroundExecutor creates a ForegroundExecutor.
//
// Parameters:
//   - options: a variadic list of ForegroundExecutorOption functions
//
// Returns:
//   - ForegroundExecutor: the executor
func NewForegroundExecutor(options ...ForegroundExecutorOption) ForegroundExecutor {
	e := &foregroundExecutorImpl{
		tasks:  make(chan foregroundTask, 64),
		closed: make(chan struct{}),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *foregroundExecutorImpl) Run(ctx context.Context, fn func() error) error {
	t := foregroundTask{ctx: ctx, fn: fn, done: make(chan error, 1), state: new(atomic.Int32)}

	select {
	case <-e.closed:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case e.tasks <- t:
	}

	if e.wake != nil {
		e.wake()
	}

	// A queued task always reports back; ctx is checked by Drain before fn starts.
	select {
	case err := <-t.done:
		return err
	case <-e.closed:
		if t.state.CompareAndSwap(taskPending, taskAbandoned) {
			return ErrExecutorClosed
		}
		return <-t.done
	}
}

func (e *foregroundExecutorImpl) Drain() int {
	n := 0
	for {
		select {
		case t := <-e.tasks:
			if e.isClosed() {
				t.state.CompareAndSwap(taskPending, taskAbandoned)
				t.done <- ErrExecutorClosed
				continue
			}
			if !t.state.CompareAndSwap(taskPending, taskRunning) {
				continue
			}
			if err := t.ctx.Err(); err != nil {
				t.done <- err
			} else {
				t.done <- t.fn()
			}
			n++
		default:
			return n
		}
	}
}

func (e *foregroundExecutorImpl) isClosed() bool {
	select {
	case <-e.closed:
		return true
	default:
		return false
	}
}

func (e *foregroundExecutorImpl) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
	})
}
