// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package sink provides terminal [flume.Subscriber] implementations.
package sink

import (
	"context"
	"slices"
	"sync"

	"vawter.tech/flume"
)

// An Option configures a [Collector].
type Option func(*config)

type config struct {
	prefetch flume.Demand
}

// WithPrefetch sets the demand a [Collector] requests when its
// subscription is established. A bounded prefetch is sustained as a
// sliding window: each delivered value grants one more unit. The
// default is [flume.Unlimited].
func WithPrefetch(d flume.Demand) Option {
	if d.IsNone() {
		panic("flume: prefetch must be positive or unlimited")
	}
	return func(c *config) { c.prefetch = d }
}

// NewCollector returns a Collector ready to be passed to
// [flume.Publisher.Subscribe].
func NewCollector[T any](opts ...Option) *Collector[T] {
	cfg := &config{prefetch: flume.Unlimited}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Collector[T]{
		prefetch: cfg.prefetch,
		done:     make(chan struct{}),
	}
}

// A Collector accumulates every value and the terminal signal of one
// subscription. It is primarily useful in tests and at the edge of a
// pipeline where the entire stream is wanted in memory.
type Collector[T any] struct {
	prefetch flume.Demand
	done     chan struct{}

	mu struct {
		sync.Mutex
		sub      flume.Subscription
		values   []T
		err      error
		finished bool
	}
}

var _ flume.Subscriber[int] = (*Collector[int])(nil)

// OnSubscribe implements [flume.Subscriber].
func (c *Collector[T]) OnSubscribe(s flume.Subscription) {
	c.mu.Lock()
	c.mu.sub = s
	c.mu.Unlock()
	s.Request(c.prefetch)
}

// OnNext implements [flume.Subscriber].
func (c *Collector[T]) OnNext(value T) flume.Demand {
	c.mu.Lock()
	c.mu.values = append(c.mu.values, value)
	c.mu.Unlock()
	if c.prefetch.IsUnlimited() {
		return flume.None
	}
	// Keep the window at its configured size.
	return flume.Max(1)
}

// OnComplete implements [flume.Subscriber].
func (c *Collector[T]) OnComplete(err error) {
	c.mu.Lock()
	if c.mu.finished {
		c.mu.Unlock()
		return
	}
	c.mu.finished = true
	c.mu.err = err
	c.mu.Unlock()
	close(c.done)
}

// Cancel stops the subscription. [Collector.Done] will never close if
// the stream had not already terminated.
func (c *Collector[T]) Cancel() {
	c.mu.Lock()
	sub := c.mu.sub
	c.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Done returns a channel that closes when the terminal signal has been
// received.
func (c *Collector[T]) Done() <-chan struct{} { return c.done }

// Wait blocks until the stream terminates and returns its failure, if
// any. If the context is done first, its error is returned instead.
func (c *Collector[T]) Wait(ctx context.Context) error {
	select {
	case <-c.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Err()
}

// Values returns a clone of the values received so far.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.mu.values)
}

// Err returns the stream's failure, or nil if the stream completed
// normally or has not yet terminated.
func (c *Collector[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.err
}
