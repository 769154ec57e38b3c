// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package flume provides demand-driven value streams with transparent
// failure recovery.
//
// A [Publisher] delivers values to a [Subscriber] no faster than the
// subscriber demands them, then finishes with exactly one completion
// signal. The [Subscription] handed to the subscriber is used to
// request more values or to cancel delivery. [Demand] is additive and
// saturating, with an [Unlimited] marker for subscribers that never
// want to think about backpressure.
//
// # The contract
//
// For each call to [Publisher.Subscribe], the publisher calls
// [Subscriber.OnSubscribe] at most once, then [Subscriber.OnNext] any
// number of times while outstanding demand is positive, then
// [Subscriber.OnComplete] exactly once. Demand is granted through
// [Subscription.Request] or by the value [Subscriber.OnNext] returns;
// the latter lets a pull-style consumer sustain flow with no extra
// calls. Subscription methods are safe from any goroutine and become
// no-ops once the stream has terminated.
//
// # Recovering from failure
//
// [Catch] swaps in a replacement stream when the original fails:
//
//	recovered := flume.Catch(flaky, func(err error) flume.Publisher[int] {
//	    return source.Slice(fallbackValues...)
//	})
//
// The switch is invisible to the subscriber: values it was owed by the
// failed stream are re-requested from the replacement, it sees no
// intermediate completion, and cancellation works across the switch.
// [TryCatch] is the variant whose handler may itself fail, delivering
// the handler's error as the stream's failure. [Retry] applies the
// same machinery to resubscribe to the original publisher a bounded
// number of times.
//
// # Sources and sinks
//
// The [vawter.tech/flume/source] package provides ready-made
// publishers: slices, iterators, channels, rate-paced emission, and a
// clock-driven ticker. The [vawter.tech/flume/sink] package provides
// terminal consumers, including a collecting subscriber and a blocking
// ForEach.
//
// # Errors and contract violations
//
// A stream failure is an ordinary error value delivered through
// [Subscriber.OnComplete]; it is data, not a program bug. Calling into
// this package outside the allowed sequencing (requesting values
// before a subscription was delivered, requesting [None], or
// delivering a failure when no subscription is active) is a bug in a
// collaborating component and panics with a diagnostic naming the
// violated precondition.
package flume
