// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package safe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	a := assert.New(t)

	ret, err := Resolve(func() (int, error) { return 42, nil })
	a.NoError(err)
	a.Equal(42, ret)

	boom := errors.New("BOOM")
	_, err = Resolve(func() (int, error) { return 0, boom })
	a.ErrorIs(err, boom)
}

func TestResolvePanic(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	boom := errors.New("BOOM")
	_, err := Resolve(func() (int, error) { panic(boom) })
	recovered := &RecoveredError{}
	r.ErrorAs(err, &recovered)
	a.ErrorIs(err, boom)
	a.NotEmpty(recovered.Stack)
	a.Contains(recovered.Error(), "recovered: BOOM")

	// Non-error panic values are formatted.
	_, err = Resolve(func() (int, error) { panic("oops") })
	r.ErrorAs(err, &recovered)
	a.Contains(err.Error(), "oops")
}
