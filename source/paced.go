// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"

	"golang.org/x/time/rate"
	"vawter.tech/flume"
)

// Paced returns a Publisher that emits the given values in order, but
// no faster than rps values per second with the given burst size.
// Delivery additionally honors subscriber demand: a value is held back
// until the subscriber has both demanded it and the rate limiter has
// released it.
//
// Each subscription gets its own [rate.Limiter], so subscribers are
// paced independently.
func Paced[T any](rps float64, burst int, values ...T) flume.Publisher[T] {
	if rps <= 0 {
		panic("flume: rate must be greater than zero")
	}
	if burst <= 0 {
		panic("flume: burst must be greater than zero")
	}
	return &pacedPublisher[T]{rps: rps, burst: burst, values: values}
}

type pacedPublisher[T any] struct {
	rps    float64
	burst  int
	values []T
}

func (p *pacedPublisher[T]) Subscribe(sub flume.Subscriber[T]) {
	g := newGate()
	sub.OnSubscribe(g)

	// Adapt the gate's stop channel to a context for rate.Limiter.Wait.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-g.stop
		cancel()
	}()

	go p.run(ctx, g, sub)
}

func (p *pacedPublisher[T]) run(ctx context.Context, g *gate, sub flume.Subscriber[T]) {
	defer g.shut()
	lim := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	for _, value := range p.values {
		if !g.acquire() {
			return
		}
		if err := lim.Wait(ctx); err != nil {
			// Cancelled while waiting for the limiter.
			return
		}
		if g.quit() {
			return
		}
		g.topUp(sub.OnNext(value))
	}
	if !g.quit() {
		sub.OnComplete(nil)
	}
}
