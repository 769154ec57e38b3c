// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package source provides ready-made [flume.Publisher] implementations.
//
// The synchronous sources ([Slice], [Just], [Empty], [Fail], [Seq])
// deliver values on the goroutine that requests them. The asynchronous
// sources ([Chan], [Paced], [Ticker]) own a single delivery goroutine
// per subscription that exits when the stream terminates.
package source

import (
	"sync"

	"vawter.tech/flume"
)

// Slice returns a Publisher that emits the given values in order and
// then completes. Each subscriber receives the full sequence,
// delivered synchronously as demand arrives.
func Slice[T any](values ...T) flume.Publisher[T] {
	return slicePublisher[T](values)
}

// Just returns a Publisher that emits a single value and completes.
func Just[T any](value T) flume.Publisher[T] {
	return Slice(value)
}

// Empty returns a Publisher that completes immediately, emitting
// nothing.
func Empty[T any]() flume.Publisher[T] {
	return Slice[T]()
}

type slicePublisher[T any] []T

func (p slicePublisher[T]) Subscribe(sub flume.Subscriber[T]) {
	s := &sliceSubscription[T]{sub: sub, values: p}
	sub.OnSubscribe(s)
	// Deliver anything already demanded during OnSubscribe, and
	// complete an empty source even if nothing was demanded.
	s.pump()
}

// sliceSubscription delivers values from a fixed slice. The emitting
// flag ensures a single drain loop even when the subscriber requests
// more demand reentrantly from within OnNext.
type sliceSubscription[T any] struct {
	sub    flume.Subscriber[T]
	values []T

	mu struct {
		sync.Mutex
		idx      int
		demand   flume.Demand
		emitting bool
		done     bool
	}
}

var _ flume.Subscription = (*sliceSubscription[int])(nil)

func (s *sliceSubscription[T]) Request(d flume.Demand) {
	if d.IsNone() {
		panic("flume: Request requires positive or unlimited demand")
	}
	s.mu.Lock()
	if s.mu.done {
		s.mu.Unlock()
		return
	}
	s.mu.demand = s.mu.demand.Add(d)
	s.mu.Unlock()
	s.pump()
}

func (s *sliceSubscription[T]) Cancel() {
	s.mu.Lock()
	s.mu.done = true
	s.mu.Unlock()
}

// pump claims the drain loop if no other frame holds it.
func (s *sliceSubscription[T]) pump() {
	s.mu.Lock()
	if s.mu.done || s.mu.emitting {
		s.mu.Unlock()
		return
	}
	s.mu.emitting = true
	s.mu.Unlock()
	s.drain()
}

// drain delivers values until demand or values run out. The mutex is
// released around every OnNext and OnComplete call.
func (s *sliceSubscription[T]) drain() {
	for {
		s.mu.Lock()
		if s.mu.done {
			s.mu.emitting = false
			s.mu.Unlock()
			return
		}
		if s.mu.idx >= len(s.values) {
			s.mu.done = true
			s.mu.emitting = false
			s.mu.Unlock()
			s.sub.OnComplete(nil)
			return
		}
		if s.mu.demand.IsNone() {
			s.mu.emitting = false
			s.mu.Unlock()
			return
		}
		value := s.values[s.mu.idx]
		s.mu.idx++
		s.mu.demand = s.mu.demand.Sub(flume.Max(1))
		s.mu.Unlock()

		more := s.sub.OnNext(value)

		if !more.IsNone() {
			s.mu.Lock()
			s.mu.demand = s.mu.demand.Add(more)
			s.mu.Unlock()
		}
	}
}

// Fail returns a Publisher that fails with err immediately after the
// subscription is established, emitting no values.
func Fail[T any](err error) flume.Publisher[T] {
	if err == nil {
		panic("flume: Fail requires an error")
	}
	return &failPublisher[T]{err: err}
}

type failPublisher[T any] struct {
	err error
}

func (p *failPublisher[T]) Subscribe(sub flume.Subscriber[T]) {
	s := &failSubscription{}
	sub.OnSubscribe(s)
	s.mu.Lock()
	cancelled := s.mu.cancelled
	s.mu.done = true
	s.mu.Unlock()
	if !cancelled {
		sub.OnComplete(p.err)
	}
}

// failSubscription accepts demand but has nothing to deliver against
// it; it exists so the subscriber can cancel during OnSubscribe and
// suppress the failure.
type failSubscription struct {
	mu struct {
		sync.Mutex
		cancelled bool
		done      bool
	}
}

var _ flume.Subscription = (*failSubscription)(nil)

func (s *failSubscription) Request(d flume.Demand) {
	if d.IsNone() {
		panic("flume: Request requires positive or unlimited demand")
	}
}

func (s *failSubscription) Cancel() {
	s.mu.Lock()
	if !s.mu.done {
		s.mu.cancelled = true
	}
	s.mu.Unlock()
}
