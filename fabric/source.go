package fabric

import (
	"sync"
	"time"

	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/internal/debug"
	"github.com/weaveio/weave/internal/nlog"
)

// Connection is a registered (source, sink) edge (spec §3). Built at
// wiring time (compile-time registration, spec §9) or, when
// Config.EnableRuntimeWiring is set, appended at runtime. A Connection
// is never freed while either endpoint is live.
type Connection struct {
	Source *Source
	Sink   *Sink
}

// Source is a named fan-out point (spec §3): it holds a list of
// outgoing connections and exposes Emit. A Source lives for the
// entire program.
type Source struct {
	name      string
	debugName string
	ops       Ops

	mu    sync.Mutex // guards conns; never held while a handler runs
	conns []*Connection
}

// NewSource creates a source. ops may be nil, in which case this
// source may carry at most one connection (spec §3 invariant 6). When
// Config.EnableNames is set (spec §6 "enable_names"), s also gets a
// unique debug name (internal/cos.GenName) surfaced through DebugName
// and used in this source's own error logging.
func NewSource(name string, ops Ops) *Source {
	s := &Source{name: name, ops: ops}
	if Rom.EnableNames() {
		s.debugName = cos.GenName(name)
	}
	return s
}

func (s *Source) Name() string { return s.name }

// DebugName returns s's unique debug identity when Config.EnableNames
// is set, or just Name() otherwise.
func (s *Source) DebugName() string {
	if s.debugName != "" {
		return s.debugName
	}
	return s.name
}

// Connect registers sink as a delivery target of s (build-time wiring,
// spec §9). Duplicate (source, sink) pairs are permitted - spec §8
// "permits but does not mandate de-duplication" - and are merely
// counted via Stats().C.DuplicateConnections so a caller can notice.
func (s *Source) Connect(sink *Sink) *Connection {
	c := &Connection{Source: s, Sink: sink}
	s.mu.Lock()
	for _, existing := range s.conns {
		if existing.Sink == sink {
			globalStats.C.DuplicateConnections.Inc()
			break
		}
	}
	s.conns = append(s.conns, c)
	s.mu.Unlock()
	return c
}

// ConnectRuntime is Connect gated by Config.EnableRuntimeWiring (spec
// §6 "connect_runtime"). The returned Connection must be stored
// somewhere that outlives it (never a stack-local in the caller) so
// that Disconnect has something stable to remove.
func (s *Source) ConnectRuntime(sink *Sink) (*Connection, error) {
	if !Rom.EnableRuntimeWiring() {
		return nil, cos.NewErr(cos.InvalidArgument, "runtime wiring disabled")
	}
	return s.Connect(sink), nil
}

// DisconnectRuntime removes a connection previously returned by
// ConnectRuntime (spec §6 "disconnect_runtime"). A no-op if the
// connection is not (or no longer) present.
func (s *Source) DisconnectRuntime(c *Connection) error {
	if !Rom.EnableRuntimeWiring() {
		return cos.NewErr(cos.InvalidArgument, "runtime wiring disabled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.conns {
		if existing == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return nil
		}
	}
	return nil
}

// snapshot copies the connection-list header under lock and returns it
// without the lock held - handlers may re-enter Emit on other sources
// and must never block on this source's lock (spec §4.1 step 3).
func (s *Source) snapshot() []*Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Connection, len(s.conns))
	copy(out, s.conns)
	return out
}

// Emit is the fan-out operation (spec §4.1). It returns the count of
// sinks that accepted the payload; a non-nil error (always carrying
// cos.InvalidArgument) signals a structural failure and short-circuits
// before any sink is touched.
func (s *Source) Emit(payload any, timeout time.Duration) (int, error) {
	if s == nil {
		return 0, cos.NewErr(cos.InvalidArgument, "nil source")
	}
	if payload == nil {
		globalStats.C.StructuralErrors.Inc()
		nlog.Errorf("emit %s: nil payload", s.DebugName())
		return 0, cos.ErrNilPayload
	}

	conns := s.snapshot()
	if s.ops == nil && len(conns) > 1 {
		globalStats.C.StructuralErrors.Inc()
		nlog.Errorf("emit %s: nil ops with %d connections", s.DebugName(), len(conns))
		return 0, cos.ErrNoOpsFanout
	}

	deadline := time.Now().Add(timeout)
	delivered := 0
	for _, c := range conns {
		sink := c.Sink
		if sink == nil || sink.handler == nil {
			continue // defensive (spec §4.1 step a)
		}

		if err := acquire(s.ops, payload, sink); err != nil {
			if cos.IsFilterSkip(err) {
				globalStats.C.FilterSkipped.Inc()
			}
			continue
		}
		globalStats.C.Acquired.Inc()

		if sink.mode == Immediate {
			debug.Func(debug.EnterHandler)
			sink.handler(payload, sink.userData)
			debug.Func(debug.ExitHandler)
			release(s.ops, payload)
			globalStats.C.Released.Inc()
			globalStats.C.Delivered.Inc()
			delivered++
			continue
		}

		remaining := time.Until(deadline)
		if err := sink.queue.put(event{sink: sink, payload: payload, ops: s.ops}, remaining); err != nil {
			release(s.ops, payload)
			globalStats.C.Released.Inc()
			globalStats.C.DroppedOverflow.Inc()
			continue
		}
		globalStats.C.Enqueued.Inc()
		delivered++
	}
	return delivered, nil
}
