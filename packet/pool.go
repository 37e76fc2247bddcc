package packet

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/hk"
	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/internal/mono"
)

// Pool is a fixed-size, preallocated set of equally-sized Buffers (spec
// §3 "PacketPool", §4.5 "Allocation"). Unlike a general-purpose
// allocator it never grows: once its capacity is exhausted, Alloc
// blocks (bounded by a timeout) or fails, it never calls into the
// runtime allocator on the fast path.
//
// Availability is tracked with a weighted semaphore so that waiting for
// a free buffer is a first-class, context-aware, timeout-capable
// operation (golang.org/x/sync/semaphore) rather than a hand-rolled
// condition variable; the buffers themselves live on a plain
// mutex-guarded free-list since the semaphore already orders access to
// a slot.
type Pool struct {
	name    string
	bufSize int

	sem  *semaphore.Weighted
	mu   sync.Mutex
	free []*Buffer

	counter uint32
	allocd  int64 // lifetime allocations, for pressure stats

	// instanceID disambiguates pools that share a name (e.g. several
	// per-connection pools) in stats labels and housekeeping
	// registrations (spec §11).
	instanceID string
	hkKey      string
}

// New creates a pool of count buffers, each bufSize bytes, each with a
// Metadata overlay (spec §3). The clock used to stamp
// Metadata.TimestampTicks is read live from fabric.Rom.
// EnableHighResTimestamps on every allocation (spec §6
// "enable_high_res_timestamps"): wall-clock nanoseconds when set, the
// monotonic nanoseconds-since-start counter (internal/mono) otherwise - so toggling the
// config at runtime takes effect on the very next Alloc, the same
// read-mostly contract the rest of the fabric gives Config changes.
//
// The pool registers its own pressure gauge with the process-wide
// housekeeper (hk.Reg), reported under a key derived from its instance
// identity (internal/cos.GenInstanceID) so that several same-named
// pools never collide.
func New(name string, count, bufSize int) *Pool {
	p := &Pool{
		name:       name,
		bufSize:    bufSize,
		sem:        semaphore.NewWeighted(int64(count)),
		free:       make([]*Buffer, 0, count),
		instanceID: cos.GenInstanceID(),
	}
	for i := 0; i < count; i++ {
		b := &Buffer{data: make([]byte, bufSize), hasMetadata: true, pool: p}
		p.free = append(p.free, b)
	}
	p.hkKey = "pool." + name + "." + p.instanceID + hk.NameSuffix
	hk.Reg(p.hkKey, p.reportPressure, time.Second)
	return p
}

func (p *Pool) Name() string       { return p.name }
func (p *Pool) InstanceID() string { return p.instanceID }

// Close unregisters the pool's housekeeping callback. Pools are
// ordinarily process-lifetime singletons (like fabric.Source/Sink),
// but tests that allocate many short-lived pools call this to avoid
// leaking hk registrations.
func (p *Pool) Close() { hk.Unreg(p.hkKey) }

// reportPressure publishes the pool's current Pressure() to the
// process-wide stats registry (spec §12.3). Runs every second for the
// lifetime of the pool.
func (p *Pool) reportPressure() time.Duration {
	fabric.Stats().SetPoolPressure(p.instanceID, p.Pressure())
	return time.Second
}

// Cap reports the pool's fixed buffer count.
func (p *Pool) Cap() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cap(p.free)
}

// Free reports how many buffers are currently available - a snapshot,
// racy by construction under concurrent Alloc/Unref, useful only for
// pressure stats (spec §12 housekeeping).
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Pressure returns the fraction of the pool currently in use, in
// [0,1], for housekeeping callbacks (hk.Reg) to export as a gauge.
func (p *Pool) Pressure() float64 {
	total := p.Cap()
	if total == 0 {
		return 0
	}
	return 1 - float64(p.Free())/float64(total)
}

// Alloc reserves one buffer stamped with WildcardID, waiting up to
// timeout for one to become free. timeout<=0 means try once, do not
// wait (spec §4.5 "Alloc" non-blocking form).
func (p *Pool) Alloc(timeout time.Duration) (*Buffer, error) {
	return p.AllocWithID(WildcardID, 0, timeout)
}

// AllocWithID reserves one buffer and stamps its Metadata with id and
// clientID before returning it (spec §3 "PacketMetadata", §4.4
// filtering). The buffer is returned with refcount 1, length 0, and no
// fragment chain.
func (p *Pool) AllocWithID(id, clientID uint8, timeout time.Duration) (*Buffer, error) {
	if !p.acquireSlot(timeout) {
		return nil, cos.NewErr(cos.NoMemory, "pool %q exhausted", p.name)
	}

	p.mu.Lock()
	n := len(p.free)
	b := p.free[n-1]
	p.free = p.free[:n-1]
	p.allocd++
	p.counter++
	counter := p.counter
	p.mu.Unlock()

	b.length = 0
	b.fragNext = nil
	b.refcount.Store(1)
	b.meta = Metadata{
		magic:          Magic,
		PacketID:       id,
		ClientID:       clientID,
		Counter:        uint16(counter),
		TimestampTicks: p.now(),
	}
	return b, nil
}

func (p *Pool) now() int64 {
	if fabric.Rom.EnableHighResTimestamps() {
		return time.Now().UnixNano()
	}
	return mono.NanoTime()
}

// acquireSlot waits up to timeout for a free semaphore unit. timeout<=0
// means a single non-blocking try.
func (p *Pool) acquireSlot(timeout time.Duration) bool {
	if timeout <= 0 {
		return p.sem.TryAcquire(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.sem.Acquire(ctx, 1) == nil
}

// recycle returns b to the free-list and releases its semaphore slot.
// Called only from Buffer.Unref once a buffer's refcount reaches zero.
func (p *Pool) recycle(b *Buffer) {
	b.hasMetadata = true
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
	p.sem.Release(1)
}
