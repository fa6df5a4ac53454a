package autosave

import (
	"context"
	"sync"
)

type saveRequest struct {
	docID   string
	content string
	gen     uint64
	rev     uint64
}

// writer executes save requests one at a time in the order they were
// enqueued. enqueue never blocks, so it is safe to call with the
// synchronizer's lock held.
type writer struct {
	exec func(context.Context, saveRequest)

	mu       sync.Mutex
	queue    []saveRequest
	draining bool

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func newWriter(exec func(context.Context, saveRequest)) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	return &writer{
		exec:   exec,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *writer) enqueue(req saveRequest) {
	w.mu.Lock()
	w.queue = append(w.queue, req)
	w.mu.Unlock()
	w.signal()
}

// drain makes run return once the queue is empty.
func (w *writer) drain() {
	w.mu.Lock()
	w.draining = true
	w.mu.Unlock()
	w.signal()
}

func (w *writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	defer w.cancel()
	for {
		req, ok := w.next()
		if !ok {
			return
		}
		w.exec(w.ctx, req)
	}
}

func (w *writer) next() (saveRequest, bool) {
	for {
		w.mu.Lock()
		if len(w.queue) > 0 {
			req := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return req, true
		}
		draining := w.draining
		w.mu.Unlock()
		if draining {
			return saveRequest{}, false
		}
		<-w.wake
	}
}
