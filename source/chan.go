// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"vawter.tech/flume"
)

// Chan returns a Publisher that emits values received from the
// channel. The stream completes when the channel is closed and is
// abandoned without completion if the subscriber cancels.
//
// Each subscription starts one goroutine that receives from the
// channel only while the subscriber has outstanding demand, so
// backpressure propagates to the channel's senders. Multiple
// subscribers to the same channel divide its values between them.
//
// A channel close is observed the next time the subscriber demands a
// value.
func Chan[T any](ch <-chan T) flume.Publisher[T] {
	return chanPublisher[T](ch)
}

type chanPublisher[T any] <-chan T

func (p chanPublisher[T]) Subscribe(sub flume.Subscriber[T]) {
	g := newGate()
	sub.OnSubscribe(g)
	go p.run(g, sub)
}

func (p chanPublisher[T]) run(g *gate, sub flume.Subscriber[T]) {
	defer g.shut()
	for g.acquire() {
		select {
		case value, ok := <-p:
			if !ok {
				if !g.quit() {
					sub.OnComplete(nil)
				}
				return
			}
			if g.quit() {
				// Cancelled while the receive was in flight; the
				// value is dropped.
				return
			}
			g.topUp(sub.OnNext(value))
		case <-g.stop:
			return
		}
	}
}
