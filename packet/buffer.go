// Package packet implements the reference-counted, fragmentable packet
// buffer layer (spec §3 "PacketBuffer", §4.5) drawn from a fixed-size
// Pool, plus the standard filtering fabric.Ops (§4.4) built on top of
// it.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package packet

import (
	"go.uber.org/atomic"

	"github.com/weaveio/weave/internal/cos"
	"github.com/weaveio/weave/internal/debug"
)

// Magic distinguishes buffers that carry a valid Metadata overlay from
// raw byte buffers that merely happen to share a user-data area with
// some other subsystem's pool (spec §3 "Metadata magic byte", §9).
const Magic uint8 = 0xA5

// WildcardID matches every sink filter and every buffer filter (spec
// §4.4: "a wildcard packet-id on either side matches everything").
// Concrete packet IDs therefore occupy 0..254.
const WildcardID uint8 = 0xFF

// Metadata is the small POD header carried in a Buffer's reserved
// metadata area (spec §3 "PacketMetadata"). It is only meaningful when
// Buffer.hasMetadata is true - a buffer without a valid Magic did not
// come from this layer's Pool.
type Metadata struct {
	magic     uint8
	PacketID  uint8
	ClientID  uint8
	Counter   uint16
	TimestampTicks int64
}

// Buffer is a reference-counted, fragmentable byte buffer (spec §3).
// refcount starts at 1 on allocation (Pool.Alloc); Ref increments it,
// Unref decrements it and returns the buffer (and its fragment chain)
// to its pool once it reaches zero (spec §4.5).
type Buffer struct {
	data        []byte
	length      int
	refcount    atomic.Int32
	fragNext    *Buffer
	meta        Metadata
	hasMetadata bool
	pool        *Pool
}

// NewRawBuffer constructs a buffer that did NOT come from a Pool and so
// carries no valid Metadata - used to model "buffers from other
// subsystems" coexisting on the same fabric (spec §3, §8 boundary
// behavior "Buffer without magic").
func NewRawBuffer(capacity int) *Buffer {
	b := &Buffer{data: make([]byte, capacity)}
	b.refcount.Store(1)
	return b
}

// Bytes returns the buffer's own (non-fragment) data, truncated to its
// current length.
func (b *Buffer) Bytes() []byte { return b.data[:b.length] }

// Len returns the total length of the logical packet: this buffer's
// length plus every fragment chained after it (spec §4.5 "Total length
// of a logical packet is the sum over the chain").
func (b *Buffer) Len() int {
	n := b.length
	for f := b.fragNext; f != nil; f = f.fragNext {
		n += f.length
	}
	return n
}

// SetLen sets how much of the buffer's backing array is in use.
func (b *Buffer) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	if n > cap(b.data) {
		n = cap(b.data)
	}
	b.length = n
	b.data = b.data[:cap(b.data)]
}

func (b *Buffer) Cap() int { return cap(b.data) }

// Next returns the next fragment in the chain, or nil.
func (b *Buffer) Next() *Buffer { return b.fragNext }

// Refcount reports the current reference count - for tests and stats,
// not for production control flow (it can change concurrently).
func (b *Buffer) Refcount() int32 { return b.refcount.Load() }

// Ref increments the buffer's refcount (spec §4.5: "a chained buffer
// that is later re-chained into another packet requires an explicit
// ref increment first").
func (b *Buffer) Ref() { b.refcount.Inc() }

// Unref decrements the refcount; at zero, the buffer (and, if it is
// the head of a fragment chain, every fragment in that chain) is
// returned to its pool (spec §4.5 "Release path").
func (b *Buffer) Unref() {
	debug.AssertNotInHandler("packet.Buffer.Unref called from within a sink handler")
	if b.refcount.Dec() > 0 {
		return
	}
	next := b.fragNext
	b.fragNext = nil
	if b.pool != nil {
		b.pool.recycle(b)
	}
	if next != nil {
		next.Unref()
	}
}

// FragAppend links tail onto the end of head's fragment chain (spec
// §4.5 "Fragment assembly"). Ownership of tail transfers to head: when
// head's refcount reaches zero, tail is released too. tail must not
// already be linked into another chain unless it was Ref'd first.
func FragAppend(head, tail *Buffer) {
	debug.Assert(head != nil && tail != nil, "nil fragment")
	cur := head
	for cur.fragNext != nil {
		cur = cur.fragNext
	}
	cur.fragNext = tail
}

// HasMetadata reports whether this buffer carries a valid Metadata
// overlay (spec §3: "Readers must check magic").
func (b *Buffer) HasMetadata() bool { return b.hasMetadata && b.meta.magic == Magic }

func (b *Buffer) GetID() (uint8, error) {
	if !b.HasMetadata() {
		return 0, cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	return b.meta.PacketID, nil
}

func (b *Buffer) SetID(id uint8) error {
	if !b.HasMetadata() {
		return cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	b.meta.PacketID = id
	return nil
}

func (b *Buffer) GetClientID() (uint8, error) {
	if !b.HasMetadata() {
		return 0, cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	return b.meta.ClientID, nil
}

func (b *Buffer) SetClientID(id uint8) error {
	if !b.HasMetadata() {
		return cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	b.meta.ClientID = id
	return nil
}

func (b *Buffer) GetCounter() (uint16, error) {
	if !b.HasMetadata() {
		return 0, cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	return b.meta.Counter, nil
}

func (b *Buffer) SetCounter(c uint16) error {
	if !b.HasMetadata() {
		return cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	b.meta.Counter = c
	return nil
}

func (b *Buffer) GetTimestamp() (int64, error) {
	if !b.HasMetadata() {
		return 0, cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	return b.meta.TimestampTicks, nil
}

func (b *Buffer) SetTimestamp(ticks int64) error {
	if !b.HasMetadata() {
		return cos.NewErr(cos.InvalidArgument, "no metadata")
	}
	b.meta.TimestampTicks = ticks
	return nil
}
