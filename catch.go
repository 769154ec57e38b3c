// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume

import (
	"fmt"
	"sync"

	"vawter.tech/flume/internal/safe"
)

// Catch returns a Publisher that mirrors the upstream until it fails,
// then transparently continues with the Publisher produced by the
// handler. The subscriber observes a single uninterrupted stream: any
// demand it requested that the failed upstream never satisfied is
// re-requested from the replacement stream as soon as that stream's
// subscription is established.
//
// The handler is invoked at most once per subscription, and never when
// the upstream completes normally or the subscriber cancels first. It
// must not return nil.
//
// See [TryCatch] for a variant whose handler may itself fail.
func Catch[T any](upstream Publisher[T], handler func(err error) Publisher[T]) Publisher[T] {
	if handler == nil {
		panic("flume: Catch requires a handler")
	}
	return &catcher[T]{
		upstream: upstream,
		handler: func(err error) (Publisher[T], error) {
			return handler(err), nil
		},
	}
}

// A RecoveredError will be delivered downstream when a [TryCatch]
// handler panics.
type RecoveredError = safe.RecoveredError

// TryCatch is a variant of [Catch] whose handler may fail. If the
// handler returns an error, or panics, that error is delivered to the
// subscriber as the stream's failure; no replacement subscription is
// made. A panic is wrapped in a [RecoveredError] before delivery.
func TryCatch[T any](upstream Publisher[T], handler func(err error) (Publisher[T], error)) Publisher[T] {
	if handler == nil {
		panic("flume: TryCatch requires a handler")
	}
	return &catcher[T]{
		upstream: upstream,
		handler:  handler,
		fallible: true,
	}
}

// catcher implements the Publisher returned by [Catch] and [TryCatch].
type catcher[T any] struct {
	upstream Publisher[T]
	handler  func(error) (Publisher[T], error)
	fallible bool
}

var _ Publisher[int] = (*catcher[int])(nil)

func (c *catcher[T]) Subscribe(sub Subscriber[T]) {
	r := &relay[T]{
		downstream: sub,
		handler:    c.handler,
		fallible:   c.fallible,
	}
	c.upstream.Subscribe(&upstreamFacade[T]{r})
}

// relayPhase tracks a relay through its lifecycle. The only edges are
//
//	pendingUpstream -> activeUpstream -> pendingRecovery ->
//	activeRecovery -> terminated
//
// plus activeUpstream -> terminated for normal completion or
// cancellation before any failure.
type relayPhase int8

const (
	pendingUpstream relayPhase = iota
	activeUpstream
	pendingRecovery
	activeRecovery
	terminated
)

// String is for debugging use only.
func (p relayPhase) String() string {
	switch p {
	case pendingUpstream:
		return "pendingUpstream"
	case activeUpstream:
		return "activeUpstream"
	case pendingRecovery:
		return "pendingRecovery"
	case activeRecovery:
		return "activeRecovery"
	case terminated:
		return "terminated"
	default:
		return fmt.Sprintf("relayPhase(%d)", int8(p))
	}
}

// A relay sits between one downstream subscriber and, sequentially, up
// to two source publishers. It is the Subscription handed to the
// downstream, and (through the two facades) the Subscriber handed to
// each source; neither source is ever exposed to the downstream
// directly.
//
// The mutex guards only the mu struct. It is never held across a call
// that leaves the relay (delivery to the downstream, Request or Cancel
// on a held source subscription, the recovery handler): any such call
// may reenter the relay synchronously on the same goroutine.
type relay[T any] struct {
	downstream Subscriber[T]
	handler    func(error) (Publisher[T], error)
	fallible   bool

	mu struct {
		sync.Mutex
		phase relayPhase

		// pending is the downstream demand not yet satisfied by the
		// currently active source. It is maintained while the
		// original upstream is the source so that, after a failure,
		// the replacement stream can be asked for exactly the values
		// the downstream is still owed. Once the replacement is
		// active, its own accounting takes over and pending is no
		// longer read.
		pending Demand

		// source is the subscription to whichever source is active,
		// nil otherwise. At most one source subscription is held at
		// any time.
		source Subscription
	}
}

var _ Subscription = (*relay[int])(nil)

// Request implements [Subscription] for the downstream subscriber.
func (r *relay[T]) Request(d Demand) {
	if d.IsNone() {
		panic("flume: Request requires positive or unlimited demand")
	}
	r.mu.Lock()
	switch r.mu.phase {
	case pendingUpstream:
		r.mu.Unlock()
		// The downstream cannot hold this relay as its subscription
		// before the upstream grant delivered it.
		panic("flume: Request called before the subscription was delivered")
	case activeUpstream:
		r.mu.pending = r.mu.pending.Add(d)
		src := r.mu.source
		r.mu.Unlock()
		src.Request(d)
	case pendingRecovery:
		// No source to forward to yet; the demand is replayed when
		// the replacement subscription arrives.
		r.mu.pending = r.mu.pending.Add(d)
		r.mu.Unlock()
	case activeRecovery:
		src := r.mu.source
		r.mu.Unlock()
		src.Request(d)
	default:
		r.mu.Unlock()
	}
}

// Cancel implements [Subscription] for the downstream subscriber.
func (r *relay[T]) Cancel() {
	r.mu.Lock()
	switch r.mu.phase {
	case activeUpstream, activeRecovery:
		src := r.mu.source
		r.mu.source = nil
		r.mu.phase = terminated
		r.mu.Unlock()
		src.Cancel()
	default:
		r.mu.Unlock()
	}
}

func (r *relay[T]) upstreamSubscribed(s Subscription) {
	r.mu.Lock()
	if r.mu.phase != pendingUpstream {
		r.mu.Unlock()
		// Duplicate or late grant from a misbehaving publisher.
		s.Cancel()
		return
	}
	r.mu.phase = activeUpstream
	r.mu.source = s
	r.mu.Unlock()

	// The relay is the handle the downstream sees; its Request and
	// Cancel calls route back into the state machine above.
	r.downstream.OnSubscribe(r)
}

func (r *relay[T]) upstreamNext(value T) Demand {
	r.mu.Lock()
	if r.mu.phase != activeUpstream {
		r.mu.Unlock()
		return None
	}
	// Consume one unit before calling out so that a reentrant Request
	// made during delivery cannot observe, or double-count, the unit
	// satisfied by this value.
	r.mu.pending = r.mu.pending.Sub(Max(1))
	r.mu.Unlock()

	more := r.downstream.OnNext(value)

	if !more.IsNone() {
		r.mu.Lock()
		r.mu.pending = r.mu.pending.Add(more)
		r.mu.Unlock()
	}
	// The increment also propagates to the upstream's own accounting
	// via this return value.
	return more
}

func (r *relay[T]) upstreamComplete(err error) {
	if err == nil {
		r.mu.Lock()
		if r.mu.phase != activeUpstream {
			r.mu.Unlock()
			return
		}
		r.mu.phase = terminated
		r.mu.source = nil
		r.mu.Unlock()
		r.downstream.OnComplete(nil)
		return
	}

	r.mu.Lock()
	switch r.mu.phase {
	case activeUpstream:
		r.mu.phase = pendingRecovery
		r.mu.source = nil
		r.mu.Unlock()
	case terminated:
		r.mu.Unlock()
		return
	default:
		p := r.mu.phase
		r.mu.Unlock()
		// No upstream subscription exists in these phases, so nothing
		// could legitimately produce this signal.
		panic(fmt.Sprintf("flume: upstream failure delivered in phase %v", p))
	}

	next, herr := r.resolve(err)
	if herr != nil {
		r.mu.Lock()
		r.mu.phase = terminated
		r.mu.Unlock()
		r.downstream.OnComplete(herr)
		return
	}
	next.Subscribe(&recoveryFacade[T]{r})
}

// resolve invokes the handler outside the lock. Only the fallible
// variant traps panics; an infallible handler declares it cannot fail,
// so a panic there is a caller bug and unwinds as-is.
func (r *relay[T]) resolve(cause error) (Publisher[T], error) {
	var next Publisher[T]
	var err error
	if r.fallible {
		next, err = safe.Resolve(func() (Publisher[T], error) {
			return r.handler(cause)
		})
		if err != nil {
			return nil, err
		}
	} else {
		next, _ = r.handler(cause)
	}
	if next == nil {
		panic("flume: catch handler returned a nil publisher")
	}
	return next, nil
}

func (r *relay[T]) recoverySubscribed(s Subscription) {
	r.mu.Lock()
	if r.mu.phase != pendingRecovery {
		r.mu.Unlock()
		// Duplicate grant, or the relay terminated while the handler's
		// publisher was setting up. Cancel so the producer isn't left
		// running unmonitored.
		s.Cancel()
		return
	}
	r.mu.phase = activeRecovery
	r.mu.source = s
	replay := r.mu.pending
	r.mu.Unlock()

	// Re-request the demand the downstream already asked for but the
	// failed upstream never satisfied.
	if !replay.IsNone() {
		s.Request(replay)
	}
}

func (r *relay[T]) recoveryNext(value T) Demand {
	r.mu.Lock()
	active := r.mu.phase == activeRecovery
	r.mu.Unlock()
	if !active {
		return None
	}
	// No pending bookkeeping here: after the initial replay the
	// replacement stream is the sole source of truth for demand.
	return r.downstream.OnNext(value)
}

func (r *relay[T]) recoveryComplete(err error) {
	r.mu.Lock()
	if r.mu.phase != activeRecovery {
		r.mu.Unlock()
		return
	}
	r.mu.phase = terminated
	r.mu.source = nil
	r.mu.Unlock()
	r.downstream.OnComplete(err)
}

// upstreamFacade forwards subscriber signals from the original
// publisher into the relay. Together with recoveryFacade it lets the
// relay distinguish signal origin through the type system instead of a
// runtime flag; the facades themselves hold no state and no lock.
type upstreamFacade[T any] struct {
	r *relay[T]
}

var _ Subscriber[int] = (*upstreamFacade[int])(nil)

func (f *upstreamFacade[T]) OnSubscribe(s Subscription) { f.r.upstreamSubscribed(s) }
func (f *upstreamFacade[T]) OnNext(value T) Demand      { return f.r.upstreamNext(value) }
func (f *upstreamFacade[T]) OnComplete(err error)       { f.r.upstreamComplete(err) }

// recoveryFacade forwards subscriber signals from the handler-supplied
// publisher into the relay.
type recoveryFacade[T any] struct {
	r *relay[T]
}

var _ Subscriber[int] = (*recoveryFacade[int])(nil)

func (f *recoveryFacade[T]) OnSubscribe(s Subscription) { f.r.recoverySubscribed(s) }
func (f *recoveryFacade[T]) OnNext(value T) Demand      { return f.r.recoveryNext(value) }
func (f *recoveryFacade[T]) OnComplete(err error)       { f.r.recoveryComplete(err) }
