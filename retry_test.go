// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySource grants every subscription, then fails each of the first
// failures attempts as soon as demand arrives. Later attempts deliver
// the full payload and complete. Every demand signal is recorded.
type flakySource[T any] struct {
	values   []T
	failures int

	mu struct {
		sync.Mutex
		attempts int
		requests []Demand
	}
}

var _ Publisher[int] = (*flakySource[int])(nil)

func (s *flakySource[T]) Subscribe(sub Subscriber[T]) {
	s.mu.Lock()
	s.mu.attempts++
	attempt := s.mu.attempts
	s.mu.Unlock()

	sub.OnSubscribe(&flakyAttempt[T]{src: s, sub: sub, attempt: attempt})
}

func (s *flakySource[T]) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.attempts
}

func (s *flakySource[T]) requested() []Demand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Demand(nil), s.mu.requests...)
}

type flakyAttempt[T any] struct {
	src     *flakySource[T]
	attempt int

	mu sync.Mutex
	// Cleared once the attempt has terminated.
	sub Subscriber[T]
}

func (f *flakyAttempt[T]) Request(d Demand) {
	f.src.mu.Lock()
	f.src.mu.requests = append(f.src.mu.requests, d)
	f.src.mu.Unlock()

	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()
	if sub == nil {
		return
	}

	if f.attempt <= f.src.failures {
		sub.OnComplete(fmt.Errorf("attempt %d failed", f.attempt))
		return
	}
	// Deliver the whole payload; the tests request enough up front.
	for _, v := range f.src.values {
		sub.OnNext(v)
	}
	sub.OnComplete(nil)
}

func (f *flakyAttempt[T]) Cancel() {
	f.mu.Lock()
	f.sub = nil
	f.mu.Unlock()
}

func TestRetryResubscribes(t *testing.T) {
	a := assert.New(t)

	src := &flakySource[int]{values: []int{1, 2}, failures: 2}
	down := &capture[int]{}
	Retry[int](src, 3).Subscribe(down)

	down.subscription().Request(Max(2))

	a.Equal(3, src.attemptCount())
	a.Equal([]int{1, 2}, down.seen())
	a.Equal([]error{nil}, down.terminated())
	// Unsatisfied demand is replayed into every new attempt.
	a.Equal([]Demand{Max(2), Max(2), Max(2)}, src.requested())
}

func TestRetryExhausted(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	src := &flakySource[int]{values: []int{1}, failures: 10}
	down := &capture[int]{}
	Retry[int](src, 2).Subscribe(down)

	down.subscription().Request(Max(1))

	// The original subscription plus two retries.
	a.Equal(3, src.attemptCount())
	terms := down.terminated()
	r.Len(terms, 1)
	a.ErrorContains(terms[0], "attempt 3 failed")
	a.Empty(down.seen())
}

func TestRetryFirstAttemptSucceeds(t *testing.T) {
	a := assert.New(t)

	src := &flakySource[int]{values: []int{7}}
	down := &capture[int]{}
	Retry[int](src, 5).Subscribe(down)

	down.subscription().Request(Max(1))

	a.Equal(1, src.attemptCount())
	a.Equal([]int{7}, down.seen())
	a.Equal([]error{nil}, down.terminated())
}

func TestRetryRejectsBadAttempts(t *testing.T) {
	r := require.New(t)

	r.Panics(func() { Retry[int](&testSource[int]{}, 0) })
	r.Panics(func() { Retry[int](&testSource[int]{}, -1) })
}
