// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"sync"

	"vawter.tech/flume"
)

// A gate is the demand accounting shared by the asynchronous sources.
// It implements [flume.Subscription] and hands out delivery permits,
// one per unit of demand, to the source's delivery goroutine.
type gate struct {
	wake chan struct{} // buffered(1); nudged whenever demand arrives
	stop chan struct{} // closed exactly once by shut

	shutOnce sync.Once

	mu struct {
		sync.Mutex
		demand flume.Demand
		done   bool
	}
}

var _ flume.Subscription = (*gate)(nil)

func newGate() *gate {
	return &gate{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
}

func (g *gate) Request(d flume.Demand) {
	if d.IsNone() {
		panic("flume: Request requires positive or unlimited demand")
	}
	g.mu.Lock()
	if g.mu.done {
		g.mu.Unlock()
		return
	}
	g.mu.demand = g.mu.demand.Add(d)
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

func (g *gate) Cancel() { g.shut() }

// shut is called by Cancel and by the delivery goroutine when the
// stream ends; it releases anything blocked in acquire.
func (g *gate) shut() {
	g.shutOnce.Do(func() {
		g.mu.Lock()
		g.mu.done = true
		g.mu.Unlock()
		close(g.stop)
	})
}

// quit reports whether the gate has been shut.
func (g *gate) quit() bool {
	select {
	case <-g.stop:
		return true
	default:
		return false
	}
}

// acquire blocks until one unit of demand is available and consumes
// it. It returns false if the gate was shut first.
func (g *gate) acquire() bool {
	for {
		g.mu.Lock()
		if g.mu.done {
			g.mu.Unlock()
			return false
		}
		if !g.mu.demand.IsNone() {
			g.mu.demand = g.mu.demand.Sub(flume.Max(1))
			g.mu.Unlock()
			return true
		}
		g.mu.Unlock()

		select {
		case <-g.wake:
		case <-g.stop:
			return false
		}
	}
}

// topUp credits demand returned from the subscriber's OnNext.
func (g *gate) topUp(d flume.Demand) {
	if d.IsNone() {
		return
	}
	g.mu.Lock()
	if !g.mu.done {
		g.mu.demand = g.mu.demand.Add(d)
	}
	g.mu.Unlock()
}
