package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/lox/pkg/runtime"
)

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*runtime.Runtime) any
	done chan workResult
}

// workResult holds the return value from a runtime operation.
type workResult struct {
	value any
	err   error
}

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("worker stopped")

// Worker serializes all runtime access through a single goroutine.
// A VM is not safe for concurrent use; every RPC and LSP handler goes
// through the worker.
type Worker struct {
	rt       *runtime.Runtime
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(rt *runtime.Runtime) *Worker {
	w := &Worker{
		rt:       rt,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn against the runtime, recovering from panics.
func (w *Worker) execute(fn func(*runtime.Runtime) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("recovered from panic in worker: %v", r)
				result.err = fmt.Errorf("internal error: %v", r)
			}
		}()
		result.value = fn(w.rt)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. A panic inside fn is returned as an error.
func (w *Worker) Do(fn func(*runtime.Runtime) any) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Session returns the ID of the runtime owned by the worker.
func (w *Worker) Session() string {
	return w.rt.ID()
}
