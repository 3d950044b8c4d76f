// Package messaging provides channel-based request queues used to hand work
// to single-consumer background workers.
package messaging

import (
	"context"
	"sync"
)

// Request encapsulates a request handed to a worker.
type Request[Req any] struct {
	Context context.Context
	Request Req
	Error   chan<- error
}

// Ok sends a successful response.
func (r Request[Req]) Ok() {
	r.Error <- nil
}

// Err sends an error response.
func (r Request[Req]) Err(err error) {
	r.Error <- err
}

// RequestQueue is a queue of requests consumed by a single worker.
//
// Size is the queue's buffer capacity. It must be set, if at all, before the
// queue is first used. A zero Size makes the queue unbuffered, in which case
// enqueueing blocks until the worker accepts the request.
type RequestQueue[Req any] struct {
	Size int

	init  sync.Once
	queue chan Request[Req]
}

// Recv returns a channel that, when read, dequeues the next request.
func (q *RequestQueue[Req]) Recv() <-chan Request[Req] {
	return q.getQueue()
}

// Do performs a synchronous request, blocking until the worker has processed
// it and reported a result.
func (q *RequestQueue[Req]) Do(ctx context.Context, req Req) error {
	response := make(chan error, 1)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.getQueue() <- Request[Req]{ctx, req, response}:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-response:
		return err
	}
}

// Post enqueues a request without waiting for it to be processed. It returns
// once the request has been accepted into the queue; the worker's result is
// discarded.
func (q *RequestQueue[Req]) Post(ctx context.Context, req Req) error {
	response := make(chan error, 1)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.getQueue() <- Request[Req]{ctx, req, response}:
		return nil
	}
}

func (q *RequestQueue[Req]) getQueue() chan Request[Req] {
	q.init.Do(func() {
		q.queue = make(chan Request[Req], q.Size)
	})
	return q.queue
}
