package fabric

import (
	"time"

	"github.com/weaveio/weave/internal/cos"
)

// Mode selects whether a sink's handler runs synchronously in the
// emitter's thread (Immediate) or on whatever goroutine later drains
// its Queue (Queued) - spec §3 "Sink".
type Mode int

const (
	Immediate Mode = iota
	Queued
)

func (m Mode) String() string {
	if m == Queued {
		return "queued"
	}
	return "immediate"
}

// Handler processes one delivered payload. userData is the sink's own
// fixed context, set at construction (spec §3: "optional per-sink user
// context").
type Handler func(payload any, userData any)

// Sink is a named delivery target (spec §3). A Sink is built once and
// then either wired into one or more Sources via Connect, or driven
// directly with Send for point-to-point delivery (spec §4.2).
type Sink struct {
	name      string
	debugName string
	handler   Handler
	mode      Mode
	queue     *Queue
	userData  any
	ops       Ops
}

// NewImmediateSink builds a sink whose handler runs synchronously in
// the emitter's thread before Emit/Send returns. When Config.EnableNames
// is set (spec §6 "enable_names"), the sink also gets a unique debug
// name (internal/cos.GenName), surfaced through DebugName.
func NewImmediateSink(name string, handler Handler, userData any, ops Ops) *Sink {
	s := &Sink{name: name, handler: handler, mode: Immediate, userData: userData, ops: ops}
	if Rom.EnableNames() {
		s.debugName = cos.GenName(name)
	}
	return s
}

// NewQueuedSink builds a sink whose handler runs on whatever goroutine
// later calls Process(queue, ...). The queue must outlive the sink.
func NewQueuedSink(name string, handler Handler, queue *Queue, userData any, ops Ops) *Sink {
	s := &Sink{name: name, handler: handler, mode: Queued, queue: queue, userData: userData, ops: ops}
	if Rom.EnableNames() {
		s.debugName = cos.GenName(name)
	}
	return s
}

func (s *Sink) Name() string  { return s.name }
func (s *Sink) Mode() Mode    { return s.mode }
func (s *Sink) Queue() *Queue { return s.queue }

// DebugName returns s's unique debug identity when Config.EnableNames
// is set, or just Name() otherwise.
func (s *Sink) DebugName() string {
	if s.debugName != "" {
		return s.debugName
	}
	return s.name
}

// Send delivers payload directly to sink, bypassing any source's
// connection graph (spec §4.2): acquire -> immediate-invoke or
// enqueue -> on queue-overflow, undo the acquire with release. Intended
// for reply paths (the method/RPC overlay) and tests. ops may differ
// from the sink's own ops (e.g. a reply sent back with the caller's
// ops rather than the sink's).
func Send(sink *Sink, payload any, ops Ops, timeout time.Duration) error {
	if sink == nil || sink.handler == nil {
		return cos.NewErr(cos.InvalidArgument, "nil sink or handler")
	}
	if err := acquire(ops, payload, sink); err != nil {
		if cos.IsFilterSkip(err) {
			globalStats.C.FilterSkipped.Inc()
			return nil
		}
		return err
	}
	globalStats.C.Acquired.Inc()

	if sink.mode == Immediate {
		sink.handler(payload, sink.userData)
		release(ops, payload)
		globalStats.C.Released.Inc()
		globalStats.C.Delivered.Inc()
		return nil
	}

	if err := sink.queue.put(event{sink: sink, payload: payload, ops: ops}, timeout); err != nil {
		release(ops, payload)
		globalStats.C.Released.Inc()
		globalStats.C.DroppedOverflow.Inc()
		return err
	}
	globalStats.C.Enqueued.Inc()
	return nil
}
