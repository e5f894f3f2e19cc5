package sessions

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrExecutorClosed is returned for work submitted after Close.
var ErrExecutorClosed = errors.New("executor closed")

// Operation is one read-modify-write against the store.
type Operation func(ctx context.Context) error

// request is a queued operation
type request struct {
	id      string
	op      Operation
	ctx     context.Context
	results chan error
}

// Executor runs operations one at a time on a single worker, so the
// read-modify-write sections of this process never interleave.
type Executor struct {
	requests  chan request
	ctxMu     sync.Mutex
	contexts  map[string]context.CancelFunc
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewExecutor creates a new executor
func NewExecutor() *Executor {
	return &Executor{
		requests: make(chan request, 10),
		contexts: make(map[string]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// Start begins processing requests
func (e *Executor) Start() {
	go e.processRequests()
}

// Close stops accepting work, cancels whatever is running and waits for the
// worker to drain.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.requests)
		e.mu.Unlock()
		e.CancelAll()
	})
}

// Wait blocks until the worker has exited after Close.
func (e *Executor) Wait() {
	<-e.done
}

func (e *Executor) processRequests() {
	defer close(e.done)
	for req := range e.requests {
		e.handleRequest(req)
	}
}

func (e *Executor) handleRequest(req request) {
	ctx, cancel := context.WithCancel(req.ctx)
	e.ctxMu.Lock()
	e.contexts[req.id] = cancel
	e.ctxMu.Unlock()

	defer func() {
		e.ctxMu.Lock()
		delete(e.contexts, req.id)
		e.ctxMu.Unlock()
		cancel()
	}()

	// Skip work whose caller already gave up.
	if err := ctx.Err(); err != nil {
		req.results <- err
		return
	}
	req.results <- req.op(ctx)
}

// Submit queues op and returns its request id and a channel that receives
// exactly one result.
func (e *Executor) Submit(ctx context.Context, op Operation) (string, <-chan error) {
	results := make(chan error, 1)

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		results <- ErrExecutorClosed
		return "", results
	}

	req := request{
		id:      uuid.New().String(),
		op:      op,
		ctx:     ctx,
		results: results,
	}
	select {
	case e.requests <- req:
		return req.id, results
	case <-ctx.Done():
		results <- ctx.Err()
		return "", results
	}
}

// Do submits op and waits for it.
func (e *Executor) Do(ctx context.Context, op Operation) error {
	_, results := e.Submit(ctx, op)
	return <-results
}

// Cancel cancels a specific request
func (e *Executor) Cancel(requestID string) {
	e.ctxMu.Lock()
	cancel, ok := e.contexts[requestID]
	e.ctxMu.Unlock()

	if ok {
		cancel()
	}
}

// CancelAll cancels all active requests
func (e *Executor) CancelAll() {
	e.ctxMu.Lock()
	cancels := make([]context.CancelFunc, 0, len(e.contexts))
	for _, cancel := range e.contexts {
		cancels = append(cancels, cancel)
	}
	e.ctxMu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}
