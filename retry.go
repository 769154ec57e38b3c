// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume

// Retry returns a Publisher that resubscribes to the upstream after a
// failure, up to attempts additional times. Demand the failed
// subscription never satisfied is carried over to each new
// subscription, so the subscriber observes one continuous stream. Once
// the attempts are exhausted, the final failure is delivered to the
// subscriber.
//
// Retry is only useful with publishers whose Subscribe starts a fresh
// stream on every call.
func Retry[T any](upstream Publisher[T], attempts int) Publisher[T] {
	if attempts <= 0 {
		panic("flume: attempts must be greater than zero")
	}
	return Catch(upstream, func(error) Publisher[T] {
		if attempts == 1 {
			return upstream
		}
		return Retry(upstream, attempts-1)
	})
}
