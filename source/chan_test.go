// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vawter.tech/flume"
	"vawter.tech/flume/sink"
)

func TestChanDeliversAndCompletes(t *testing.T) {
	a := assert.New(t)

	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	c := sink.NewCollector[int]()
	Chan(ch).Subscribe(c)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	a.NoError(c.Wait(ctx))
	a.Equal([]int{1, 2, 3}, c.Values())
}

func TestChanHonorsDemand(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	ch := make(chan int, 2)
	ch <- 1
	ch <- 2

	rec := &recorder[int]{}
	Chan(ch).Subscribe(rec)

	// Without demand, nothing is received from the channel.
	a.Never(func() bool { return len(rec.seen()) > 0 },
		100*time.Millisecond, 10*time.Millisecond)

	rec.subscription().Request(flume.Max(1))
	r.Eventually(func() bool { return len(rec.seen()) == 1 },
		5*time.Second, time.Millisecond)
	a.Equal([]int{1}, rec.seen())

	rec.subscription().Request(flume.Max(1))
	r.Eventually(func() bool { return len(rec.seen()) == 2 },
		5*time.Second, time.Millisecond)
	a.Equal([]int{1, 2}, rec.seen())
	a.Empty(rec.terminated())
}

func TestChanCancelStopsGoroutine(t *testing.T) {
	a := assert.New(t)

	ch := make(chan int, 1)
	rec := &recorder[int]{}
	Chan(ch).Subscribe(rec)

	rec.subscription().Request(flume.Unlimited)
	rec.subscription().Cancel()

	// The value may or may not have been consumed from the channel,
	// but it is never delivered and no completion is signaled.
	ch <- 42
	a.Never(func() bool {
		return len(rec.seen()) > 0 || len(rec.terminated()) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestChanCloseCompletes(t *testing.T) {
	a := assert.New(t)

	ch := make(chan int)
	c := sink.NewCollector[int]()
	Chan(ch).Subscribe(c)
	close(ch)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	a.NoError(c.Wait(ctx))
	a.Empty(c.Values())
}
