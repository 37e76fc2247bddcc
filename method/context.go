// Package method implements the RPC-style overlay described in spec §3
// component F ("Method"): a request/response call built entirely on
// top of the fan-out primitives in package fabric - a Method is just a
// named Source+Sink pair, a Call is just an Emit whose payload is a
// Context carrying its own completion latch.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package method

import (
	"sync"
	"time"

	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/internal/nlog"
)

// Context is the unit of work passed through the fabric for one call
// (spec §3 "MethodContext"). It is allocated by Call/CallAsync and
// owned by the caller for its entire lifetime - handlers never acquire
// or release it (method.Method uses fabric.NopOps), they only read
// Request and write Response/err before calling complete.
type Context struct {
	Request  []byte
	Response []byte

	id          string // process-unique call identity (spec §11)
	err         error
	once        sync.Once
	done        chan struct{}
	rspSizeWant int // 0 = unchecked; set by Method before dispatch
}

func newContext(request []byte) *Context {
	return &Context{Request: request, done: make(chan struct{}), id: cos.GenInstanceID()}
}

// ID returns this call's process-unique identity (internal/cos.
// GenInstanceID), used to correlate a single call's failure log lines
// and stats-series contributions across CallAsync/Wait (spec §11).
func (c *Context) ID() string { return c.id }

// Fail records err and signals completion. Safe to call at most
// meaningfully once; subsequent calls are no-ops (spec §5.2: "a handler
// that calls neither Complete nor Fail leaves the caller's Wait blocked
// until its own timeout" - calling both, or either twice, must not
// panic or deadlock the latch).
func (c *Context) Fail(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
		nlog.Errorf("call %s failed: %v", c.id, err)
	})
}

// Complete signals successful completion with response as the result.
// The response-size check (spec §4.6) runs here, inside the same
// once.Do as closing done, so a Wait that has already observed
// completion never races with a late size-mismatch verdict.
func (c *Context) Complete(response []byte) {
	c.once.Do(func() {
		c.Response = response
		if c.rspSizeWant > 0 && len(response) != c.rspSizeWant {
			c.err = cos.NewErr(cos.InvalidArgument, "response size %d, expected %d", len(response), c.rspSizeWant)
			nlog.Errorf("call %s: %v", c.id, c.err)
		}
		close(c.done)
	})
}

// Err returns the error recorded by Fail or by Complete's response-size
// check, or nil if the call completed successfully (or has not
// completed yet).
func (c *Context) Err() error { return c.err }

// wait blocks until the context completes or timeout elapses, in which
// case it returns cos.Timeout.
func (c *Context) wait(timeout time.Duration) error {
	if timeout <= 0 {
		select {
		case <-c.done:
			return c.err
		default:
			return cos.NewErr(cos.Timeout, "method call not yet complete")
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.done:
		return c.err
	case <-t.C:
		return cos.NewErr(cos.Timeout, "method call timed out after %s", timeout)
	}
}

// Wait blocks until ctx completes or timeout elapses (spec §5.2
// "Wait"). It may be called from a different goroutine than the one
// that issued CallAsync, any number of times.
func Wait(ctx *Context, timeout time.Duration) error {
	return ctx.wait(timeout)
}
