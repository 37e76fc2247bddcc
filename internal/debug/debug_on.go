//go:build debug

/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	ratomic "sync/atomic"
)

func ON() bool { return true }

func Assert(cond bool, args ...any) {
	if cond {
		return
	}
	panic(fmt.Sprintln(append([]any{"assertion failed:"}, args...)...))
}

func Assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	panic(fmt.Sprintf("assertion failed: "+format, args...))
}

func AssertNoErr(err error) {
	if err == nil {
		return
	}
	panic(fmt.Sprintf("unexpected error: %v", err))
}

// Func runs f only in debug builds - used for expensive consistency
// checks (e.g. the handler-depth bookkeeping around a handler invocation) that
// must never execute on the production fast path.
func Func(f func()) { f() }

// depth counts how many handler invocations are currently in flight
// process-wide. It is a best-effort, not a precise per-payload check:
// under concurrent emit from many sources it can only tell you "some
// handler somewhere is running", which is enough to catch the common
// single-flow case described in the spec's open question without
// threading a payload-keyed map through every release call.
var depth ratomic.Int32

func EnterHandler() { depth.Add(1) }
func ExitHandler()  { depth.Add(-1) }
func InHandler() bool { return depth.Load() > 0 }

// AssertNotInHandler flags a release that happens while a handler is
// on-stack - the authoritative contract (spec §9) is that handlers do
// not own the payload and must not release it themselves.
func AssertNotInHandler(args ...any) {
	Assert(!InHandler(), append([]any{"handler must not release its payload:"}, args...)...)
}
