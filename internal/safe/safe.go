// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package safe invokes user-provided callbacks, converting panics
// into errors.
package safe

import (
	"fmt"
	"runtime"
	"strings"
)

const captureDepth = 32

// A RecoveredError carries a panic value and the stack at the point of
// the panic.
type RecoveredError struct {
	Err   error
	Stack []uintptr
}

// Error implements error.
func (e *RecoveredError) Error() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "recovered: %v\n", e.Err)
	frames := runtime.CallersFrames(e.Stack)
	for {
		frame, more := frames.Next()
		_, _ = fmt.Fprintf(&sb, "%s ( %s:%d )\n", frame.Function, frame.File, frame.Line)
		if !more {
			return sb.String()
		}
	}
}

// Unwrap returns the enclosed error.
func (e *RecoveredError) Unwrap() error { return e.Err }

// Resolve invokes a fallible factory function. A panic raised by the
// function is returned as a *RecoveredError instead of unwinding the
// caller.
func Resolve[R any](fn func() (R, error)) (ret R, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		rErr, ok := r.(error)
		if !ok {
			rErr = fmt.Errorf("panic: %v", r)
		}
		stack := make([]uintptr, captureDepth)
		stack = stack[:runtime.Callers(2, stack)]
		err = &RecoveredError{
			Err:   rErr,
			Stack: stack,
		}
	}()
	return fn()
}
