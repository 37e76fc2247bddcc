package method

import (
	"time"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/internal/cos"
)

// Handler processes one call's request and must call exactly one of
// ctx.Complete / ctx.Fail before returning control to the fabric (spec
// §5.2). It never retains ctx past its own return.
type Handler func(ctx *Context)

// Mode selects whether a Method's handler runs inline on the caller's
// goroutine (spec §4 "Immediate") or on a worker goroutine draining a
// bounded queue (spec §4 "Queued").
type Mode = fabric.Mode

const (
	Immediate = fabric.Immediate
	Queued    = fabric.Queued
)

// Method is a named, callable endpoint (spec §3 "Method"): internally
// just a fabric.Source with exactly one fabric.Sink connected, wired
// together at construction. Payload lifetime is owned entirely by the
// caller (a Context is never pooled or refcounted), so Method uses
// fabric.NopOps throughout.
type Method struct {
	name    string
	src     *fabric.Source
	sink    *fabric.Sink
	queue   *fabric.Queue
	reqSize int
	rspSize int
}

// New creates a method named name whose calls are dispatched to
// handler. mode selects Immediate (handler runs on the calling
// goroutine, inside Call/CallAsync) or Queued (handler runs on whatever
// goroutine drains the returned queue via fabric.Process - the caller
// is responsible for running that loop, e.g. via fabric.Processor).
// maxPending bounds how many outstanding calls may be queued at once
// for a Queued method (spec §6 "max_pending_requests"); it is ignored
// for Immediate methods. reqSize/rspSize fix the exact request/response
// sizes this method accepts (spec §4.6: "dispatch rejects mismatched
// sizes with InvalidArgument before invoking the handler"); 0 means
// variable-length, unchecked.
func New(name string, mode Mode, handler Handler, maxPending int, reqSize, rspSize int) *Method {
	m := &Method{name: name, src: fabric.NewSource(name, fabric.NopOps{}), reqSize: reqSize, rspSize: rspSize}

	wrapped := func(payload any, _ any) {
		ctx, ok := payload.(*Context)
		if !ok {
			return
		}
		if m.reqSize > 0 && len(ctx.Request) != m.reqSize {
			ctx.Fail(cos.NewErr(cos.InvalidArgument, "request size %d, method %q expects %d", len(ctx.Request), name, m.reqSize))
			return
		}
		handler(ctx)
	}

	if mode == Queued {
		if maxPending <= 0 {
			maxPending = fabric.Rom.Get().MaxPendingRequests
		}
		m.queue = fabric.NewQueue(name, maxPending)
		m.sink = fabric.NewQueuedSink(name, wrapped, m.queue, nil, fabric.NopOps{})
	} else {
		m.sink = fabric.NewImmediateSink(name, wrapped, nil, fabric.NopOps{})
	}
	m.src.Connect(m.sink)
	return m
}

// Name returns the method's registered name.
func (m *Method) Name() string { return m.name }

// Queue returns the method's backing queue, or nil for an Immediate
// method - callers of a Queued method must drain this (directly via
// fabric.Process, or via a fabric.Processor) or calls never complete.
func (m *Method) Queue() *fabric.Queue { return m.queue }

func validateSize(what string, n, max int) error {
	if max > 0 && n > max {
		return cos.NewErr(cos.InvalidArgument, "%s size %d exceeds max %d", what, n, max)
	}
	return nil
}

// CallAsync issues a call and returns immediately with a Context the
// caller must later pass to Wait (spec §5.2 "CallAsync"). request is
// validated against Config.MaxRequestSize before being handed to the
// fabric.
func (m *Method) CallAsync(request []byte) (*Context, error) {
	if err := validateSize("request", len(request), fabric.Rom.Get().MaxRequestSize); err != nil {
		return nil, err
	}
	ctx := newContext(request)
	ctx.rspSizeWant = m.rspSize
	if _, err := m.src.Emit(ctx, 0); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Call issues a call and blocks until it completes or timeout elapses
// (spec §5.2 "Call" = CallAsync + Wait). On a timeout, the Context
// returned alongside the error is still valid and may complete later;
// the caller decides whether to keep waiting on it.
func (m *Method) Call(request []byte, timeout time.Duration) (*Context, error) {
	ctx, err := m.CallAsync(request)
	if err != nil {
		return nil, err
	}
	if err := ctx.wait(timeout); err != nil {
		return ctx, err
	}
	if err := validateSize("response", len(ctx.Response), fabric.Rom.Get().MaxResponseSize); err != nil {
		return ctx, err
	}
	return ctx, ctx.err
}
