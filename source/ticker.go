// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"time"

	"github.com/benbjohnson/clock"
	"vawter.tech/flume"
)

// Ticker returns a Publisher that emits the current time at the given
// interval, for as long as the subscriber has outstanding demand.
// Ticks that arrive while demand is exhausted are dropped rather than
// buffered. The stream never completes on its own; it ends only when
// the subscriber cancels.
//
// A nil clk uses the wall clock. Tests can inject [clock.NewMock] to
// drive emission deterministically.
func Ticker(clk clock.Clock, interval time.Duration) flume.Publisher[time.Time] {
	if interval <= 0 {
		panic("flume: interval must be greater than zero")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &tickerPublisher{clk: clk, interval: interval}
}

type tickerPublisher struct {
	clk      clock.Clock
	interval time.Duration
}

func (p *tickerPublisher) Subscribe(sub flume.Subscriber[time.Time]) {
	g := newGate()
	// Create the ticker before handing out the subscription so that a
	// mock clock advanced immediately after Subscribe returns is
	// observed.
	t := p.clk.Ticker(p.interval)
	sub.OnSubscribe(g)
	go tick(g, sub, t)
}

func tick(g *gate, sub flume.Subscriber[time.Time], t *clock.Ticker) {
	defer t.Stop()
	defer g.shut()
	for g.acquire() {
		select {
		case now := <-t.C:
			if g.quit() {
				return
			}
			g.topUp(sub.OnNext(now))
		case <-g.stop:
			return
		}
	}
}
