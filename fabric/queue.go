package fabric

import (
	"time"

	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/internal/debug"
	"github.com/weaveio/weave/internal/nlog"
)

// event is the in-queue record (spec §3 "Event"): small, copyable, the
// payload is only a reference.
type event struct {
	sink    *Sink
	payload any
	// ops is the vtable Acquire was called against for this delivery.
	// It is normally the same as sink's own ops, but Send (spec §4.2)
	// allows a caller to supply different ops per delivery (e.g. a
	// reply path); the event carries whichever ops acquired the
	// payload so release is paired with the matching acquire even
	// after the event has been queued (invariant 1, spec §3).
	ops Ops
}

// Queue is a bounded FIFO of (sink, payload) events (spec §3
// "MessageQueue"), safe to Put/Get from any goroutine including a
// non-blocking call made from an interrupt-equivalent context (a
// signal handler or another goroutine that must never block).
//
// A buffered channel is the idiomatic Go realization of the bounded,
// internally-synchronized FIFO the spec calls for: capacity is fixed
// at construction, Put/Get are both safe for concurrent use, and a
// non-blocking attempt is a zero-cost `select default`.
type Queue struct {
	ch         chan event
	name       string
	instanceID string
}

// NewQueue creates a bounded message queue of the given capacity. Each
// queue gets a process-unique instance identity (internal/cos.
// GenInstanceID) so that several queues sharing a name still produce
// distinct stats-series labels and housekeeping registrations (spec §11).
func NewQueue(name string, capacity int) *Queue {
	return &Queue{ch: make(chan event, capacity), name: name, instanceID: cos.GenInstanceID()}
}

func (q *Queue) Name() string       { return q.name }
func (q *Queue) InstanceID() string { return q.instanceID }
func (q *Queue) Cap() int           { return cap(q.ch) }
func (q *Queue) Used() int          { return len(q.ch) }

// put enqueues ev, waiting up to timeout if the queue is full.
// timeout<=0 means "do not wait" (the interrupt-safe variant).
func (q *Queue) put(ev event, timeout time.Duration) error {
	if timeout <= 0 {
		select {
		case q.ch <- ev:
			return nil
		default:
			return cos.NewErr(cos.Overflow, "queue %q full", q.name)
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case q.ch <- ev:
		return nil
	case <-t.C:
		return cos.NewErr(cos.Overflow, "queue %q full after %s", q.name, timeout)
	}
}

// get dequeues one event, waiting up to timeout for it to arrive.
// timeout<=0 means "do not wait".
func (q *Queue) get(timeout time.Duration) (event, bool) {
	if timeout <= 0 {
		select {
		case ev := <-q.ch:
			return ev, true
		default:
			return event{}, false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case ev := <-q.ch:
		return ev, true
	case <-t.C:
		return event{}, false
	}
}

// drainCap bounds how many events a single Process call will drain
// non-blockingly after its first blocking get, preventing one hot
// queue from starving the caller's thread indefinitely (spec §4.3).
const drainCap = 4096

// Process implements the §4.3 contract: block up to timeout for the
// first event, then drain everything immediately available (up to
// drainCap), invoking each sink's handler and then its release hook.
// Returns the number of handler invocations.
func Process(q *Queue, timeout time.Duration) (int, error) {
	if q == nil {
		return 0, cos.NewErr(cos.InvalidArgument, "nil queue")
	}
	first, ok := q.get(timeout)
	if !ok {
		return 0, nil
	}
	processed := 0
	ev := first
	for drained := 1; ; drained++ {
		if dispatch(ev) {
			processed++
		}
		if drained >= drainCap {
			break
		}
		next, ok := q.get(0)
		if !ok {
			break
		}
		ev = next
	}
	return processed, nil
}

// dispatch runs one dequeued event's handler and release hook (§4.3
// steps a-c). A corrupt event (nil sink or handler) is discarded
// without a release - it is considered to have never been validly
// acquired in the first place. Reports whether the handler was invoked.
func dispatch(ev event) bool {
	if ev.sink == nil || ev.sink.handler == nil {
		globalStats.C.LifecycleViolations.Inc()
		if ev.sink != nil {
			nlog.Errorf("dispatch %s: nil handler", ev.sink.DebugName())
		}
		return false
	}
	debug.Func(debug.EnterHandler)
	ev.sink.handler(ev.payload, ev.sink.userData)
	debug.Func(debug.ExitHandler)
	release(ev.ops, ev.payload)
	globalStats.C.Released.Inc()
	globalStats.C.Delivered.Inc()
	return true
}
