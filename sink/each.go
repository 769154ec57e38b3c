// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"context"
	"sync"

	"vawter.tech/flume"
)

// ForEach subscribes to the publisher with unlimited demand and
// applies fn to every value, blocking until the stream terminates.
// It returns the stream's failure, the first error returned by fn, or
// the context's error, whichever occurs first. A fn error or a context
// cancellation also cancels the subscription.
func ForEach[T any](ctx context.Context, p flume.Publisher[T], fn func(T) error) error {
	e := &eachSubscriber[T]{fn: fn, done: make(chan struct{})}
	p.Subscribe(e)

	select {
	case <-e.done:
	case <-ctx.Done():
		e.cancel()
		return ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mu.err
}

type eachSubscriber[T any] struct {
	fn   func(T) error
	done chan struct{}

	mu struct {
		sync.Mutex
		sub      flume.Subscription
		err      error
		finished bool
	}
}

var _ flume.Subscriber[int] = (*eachSubscriber[int])(nil)

func (e *eachSubscriber[T]) OnSubscribe(s flume.Subscription) {
	e.mu.Lock()
	e.mu.sub = s
	e.mu.Unlock()
	s.Request(flume.Unlimited)
}

func (e *eachSubscriber[T]) OnNext(value T) flume.Demand {
	if err := e.fn(value); err != nil {
		e.cancel()
		e.finish(err)
	}
	return flume.None
}

func (e *eachSubscriber[T]) OnComplete(err error) {
	e.finish(err)
}

func (e *eachSubscriber[T]) cancel() {
	e.mu.Lock()
	sub := e.mu.sub
	e.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// finish records the first terminal condition and releases ForEach.
func (e *eachSubscriber[T]) finish(err error) {
	e.mu.Lock()
	if e.mu.finished {
		e.mu.Unlock()
		return
	}
	e.mu.finished = true
	e.mu.err = err
	e.mu.Unlock()
	close(e.done)
}
