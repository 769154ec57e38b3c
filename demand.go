// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume

import (
	"fmt"
	"math"
)

// A Demand is the number of additional values a [Subscriber] is
// prepared to receive. Demand is additive: each [Subscription.Request]
// call and each value returned from [Subscriber.OnNext] increases the
// outstanding balance, and each delivered value consumes one unit.
//
// Demand arithmetic saturates. Adding to an unlimited Demand remains
// unlimited, and subtracting below zero stops at zero. The zero value
// is [None].
type Demand struct {
	n uint64
}

// None is the zero Demand. A Subscriber may return None from
// [Subscriber.OnNext], but passing None to [Subscription.Request] is a
// contract violation.
var None = Demand{}

// Unlimited requests the remainder of the stream. Once a Subscriber's
// outstanding demand is unlimited, it stays unlimited.
var Unlimited = Demand{n: math.MaxUint64}

// Max returns a Demand for n values. It panics if n is negative.
func Max(n int) Demand {
	if n < 0 {
		panic(fmt.Sprintf("flume: demand must be non-negative, got %d", n))
	}
	return Demand{n: uint64(n)}
}

// Add returns the saturating sum of the two demands.
func (d Demand) Add(other Demand) Demand {
	if d.IsUnlimited() || other.IsUnlimited() {
		return Unlimited
	}
	if sum := d.n + other.n; sum >= d.n {
		return Demand{n: sum}
	}
	return Unlimited
}

// Sub returns the receiver reduced by other, saturating at [None]. An
// unlimited receiver is unchanged.
func (d Demand) Sub(other Demand) Demand {
	if d.IsUnlimited() {
		return Unlimited
	}
	if other.n >= d.n {
		return None
	}
	return Demand{n: d.n - other.n}
}

// IsNone returns true if no values are demanded.
func (d Demand) IsNone() bool { return d.n == 0 }

// IsUnlimited returns true if the demand is [Unlimited].
func (d Demand) IsUnlimited() bool { return d == Unlimited }

// Count returns the demanded number of values. The boolean is false if
// the demand is unlimited, in which case the count is meaningless.
func (d Demand) Count() (int, bool) {
	if d.IsUnlimited() {
		return 0, false
	}
	return int(d.n), true
}

// String is for debugging use only.
func (d Demand) String() string {
	if d.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", d.n)
}
