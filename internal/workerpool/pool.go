package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned for tasks submitted after Stop.
var ErrStopped = errors.New("worker pool stopped")

// task is a unit of offloaded work with its completion channel.
type task struct {
	fn   func() error
	done chan error
}

// Pool executes CPU-bound work on a fixed set of worker goroutines so that
// hashing and image transformation never run on a request-handling
// goroutine. Do blocks the calling goroutine, which simply parks on a
// channel; request acceptance is unaffected.
type Pool struct {
	tasks   chan task
	stop    chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once
}

// New creates and starts a pool with the given number of workers.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		tasks: make(chan task),
		stop:  make(chan struct{}),
	}

	for range workers {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case t := <-p.tasks:
			t.done <- runTask(t.fn)
		case <-p.stop:
			return
		}
	}
}

// runTask executes one task, converting a panic into an error so a faulty
// transformation cannot take a worker down.
func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("offloaded task panicked: %v\n%s", r, debug.Stack())
		}
	}()

	return fn()
}

// Do runs fn on a pool worker and waits for its result. The context is
// honored only while waiting for a free worker: once dispatched, the task
// runs to completion even if the caller goes away.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stop:
		return ErrStopped
	}

	return <-t.done
}

// Stop shuts the pool down. Workers finish their current task; queued
// submissions fail with ErrStopped.
func (p *Pool) Stop() {
	p.stopped.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
}

// Run executes fn on the pool and returns its value alongside its error.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var result T

	err := p.Do(ctx, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})

	return result, err
}
