package packet

import (
	"sync"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/internal/cos"
)

// Ops is the standard fabric.Ops implementation for Buffer payloads
// (spec §4.4 "Filtering"). One Ops instance is normally shared by every
// Source whose payloads are *Buffer - Acquire bumps the refcount (and
// enforces per-sink packet-ID filters), Release drops it.
//
// Per-sink filters live here rather than on fabric.Sink itself: the
// fabric package has no notion of a packet ID, so the filter table is
// this package's own concern, keyed by the *fabric.Sink pointer a
// filter was registered for.
type Ops struct {
	mu      sync.RWMutex
	filters map[*fabric.Sink]uint8
}

// NewOps creates an empty filter table. Sinks with no registered
// filter behave as if filtered on WildcardID (match everything).
func NewOps() *Ops {
	return &Ops{filters: make(map[*fabric.Sink]uint8)}
}

// SetFilter restricts sink to only accept buffers whose PacketID equals
// id, unless id or the buffer's own PacketID is WildcardID (spec §4.4:
// "a wildcard packet-id on either side matches everything").
func (o *Ops) SetFilter(sink *fabric.Sink, id uint8) {
	o.mu.Lock()
	o.filters[sink] = id
	o.mu.Unlock()
}

// ClearFilter reverts sink to the wildcard (accept-everything) filter.
func (o *Ops) ClearFilter(sink *fabric.Sink) {
	o.mu.Lock()
	delete(o.filters, sink)
	o.mu.Unlock()
}

func (o *Ops) filterFor(sink *fabric.Sink) uint8 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if id, ok := o.filters[sink]; ok {
		return id
	}
	return WildcardID
}

// Acquire implements fabric.Ops. It rejects non-*Buffer payloads as a
// structural error, and silently skips (spec §4.4: a FilterMismatch is
// not an error, it is a normal "this sink doesn't want it" outcome)
// deliveries whose packet ID doesn't match the sink's filter.
func (o *Ops) Acquire(payload any, sink *fabric.Sink) error {
	buf, ok := payload.(*Buffer)
	if !ok {
		return cos.NewErr(cos.InvalidArgument, "packet.Ops: payload is not a *packet.Buffer")
	}
	filter := o.filterFor(sink)
	if filter != WildcardID {
		id, err := buf.GetID()
		if err != nil {
			return err
		}
		if id != WildcardID && id != filter {
			return cos.NewErr(cos.FilterMismatch, "packet id %d does not match sink filter %d", id, filter)
		}
	}
	buf.Ref()
	return nil
}

// Release implements fabric.Ops.
func (o *Ops) Release(payload any) {
	buf, ok := payload.(*Buffer)
	if !ok {
		return
	}
	buf.Unref()
}

var _ fabric.Ops = (*Ops)(nil)
