// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package flume_test

import (
	"context"
	"errors"
	"fmt"

	"vawter.tech/flume"
	"vawter.tech/flume/sink"
	"vawter.tech/flume/source"
)

// A stream that fails is transparently continued with a replacement
// stream produced by the handler.
func ExampleCatch() {
	truncated := source.Fail[int](errors.New("stream truncated"))

	recovered := flume.Catch(truncated, func(err error) flume.Publisher[int] {
		fmt.Println("recovering from:", err)
		return source.Slice(1, 2, 3)
	})

	c := sink.NewCollector[int]()
	recovered.Subscribe(c)
	if err := c.Wait(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println(c.Values())

	// Output:
	// recovering from: stream truncated
	// [1 2 3]
}

// A handler that cannot produce a replacement stream fails the
// subscriber with its own error.
func ExampleTryCatch() {
	flaky := source.Fail[string](errors.New("no such shard"))

	recovered := flume.TryCatch(flaky, func(err error) (flume.Publisher[string], error) {
		return nil, fmt.Errorf("recovery impossible: %w", err)
	})

	c := sink.NewCollector[string]()
	recovered.Subscribe(c)
	fmt.Println(c.Wait(context.Background()))

	// Output:
	// recovery impossible: no such shard
}
