// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume

// A Publisher produces a sequence of values followed by exactly one
// completion, delivering values no faster than its subscriber demands
// them.
//
// Subscribe may be called any number of times; each call starts an
// independent subscription. For each subscription, the Publisher must
// call [Subscriber.OnSubscribe] at most once before any other signal,
// may then call [Subscriber.OnNext] any number of times (but only
// while the subscriber's outstanding demand is positive), and must
// finish with exactly one call to [Subscriber.OnComplete].
type Publisher[T any] interface {
	Subscribe(sub Subscriber[T])
}

// A Subscriber is the receiving side of a subscription.
//
// A conforming Publisher delivers signals to a single subscription
// serially, but different subscriptions, or a publisher and the
// subscriber's own goroutine, may overlap arbitrarily.
type Subscriber[T any] interface {
	// OnSubscribe delivers the Subscription the Subscriber uses to
	// demand values or to cancel delivery. It is called at most once.
	OnSubscribe(s Subscription)

	// OnNext delivers one value, consuming one unit of outstanding
	// demand. The returned Demand is added to the outstanding balance,
	// allowing a pull-style subscriber to sustain flow without calling
	// [Subscription.Request]. Returning [None] is always permitted.
	//
	// A Subscriber must not panic out of OnNext. Operators in this
	// module do not hold internal locks during delivery, so a panic
	// unwinds through them safely, but the upstream is then left
	// unterminated.
	OnNext(value T) Demand

	// OnComplete delivers the terminal signal, exactly once. A nil
	// error indicates the stream finished normally.
	OnComplete(err error)
}

// A Subscription links one Subscriber to one Publisher. Its methods are
// safe for concurrent use from any goroutine and are no-ops after the
// stream has terminated.
type Subscription interface {
	// Request adds d to the subscriber's outstanding demand. The
	// demand must be positive or [Unlimited]; requesting [None] is a
	// contract violation and panics.
	Request(d Demand)

	// Cancel permanently stops delivery. Cancellation is terminal:
	// no value or completion will be delivered afterwards, although a
	// delivery already in flight on another goroutine may still land.
	Cancel()
}
