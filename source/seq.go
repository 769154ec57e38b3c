// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"iter"
	"sync"

	"vawter.tech/flume"
)

// Seq returns a Publisher that emits the elements of the sequence in
// order and then completes. Each subscriber pulls the sequence
// independently from the beginning.
//
// The sequence is advanced only as demand arrives, so an unbounded
// sequence is usable with a bounded subscriber. Cancellation stops the
// underlying iterator.
func Seq[T any](seq iter.Seq[T]) flume.Publisher[T] {
	return seqPublisher[T](seq)
}

type seqPublisher[T any] iter.Seq[T]

func (p seqPublisher[T]) Subscribe(sub flume.Subscriber[T]) {
	next, stop := iter.Pull(iter.Seq[T](p))
	s := newSeqSubscription(sub, next, stop)
	sub.OnSubscribe(s)
	s.pump()
}

// seqSubscription is the iterator analogue of sliceSubscription. The
// mutex additionally serializes the next and stop functions, which
// iter.Pull forbids calling concurrently.
type seqSubscription[T any] struct {
	sub flume.Subscriber[T]

	mu struct {
		sync.Mutex
		next     func() (T, bool)
		stop     func()
		demand   flume.Demand
		emitting bool
		done     bool
	}
}

var _ flume.Subscription = (*seqSubscription[int])(nil)

func newSeqSubscription[T any](sub flume.Subscriber[T], next func() (T, bool), stop func()) *seqSubscription[T] {
	s := &seqSubscription[T]{sub: sub}
	s.mu.next = next
	s.mu.stop = stop
	return s
}

func (s *seqSubscription[T]) Request(d flume.Demand) {
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

func (s *seqSubscription[T]) Cancel() {
	s.mu.Lock()
	if !s.mu.done {
		s.mu.done = true
		s.mu.stop()
	}
	s.mu.Unlock()
}

func (s *seqSubscription[T]) pump() {
	s.mu.Lock()
	if s.mu.done || s.mu.emitting {
		s.mu.Unlock()
		return
	}
	s.mu.emitting = true
	s.mu.Unlock()
	s.drain()
}

func (s *seqSubscription[T]) drain() {
	for {
		s.mu.Lock()
		if s.mu.done {
			s.mu.emitting = false
			s.mu.Unlock()
			return
		}
		if s.mu.demand.IsNone() {
			s.mu.emitting = false
			s.mu.Unlock()
			return
		}
		value, ok := s.mu.next()
		if !ok {
			s.mu.done = true
			s.mu.emitting = false
			s.mu.stop()
			s.mu.Unlock()
			s.sub.OnComplete(nil)
			return
		}
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
