// Package fabric implements the source-to-sink fan-out engine: the
// payload-ops vtable (A), sources (B), sinks (C), and the bounded
// message queue + processor (D) described in spec §§3-5.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package fabric

// Ops is the payload-ops vtable (spec §3 "PayloadOps"). It is the
// mechanism by which the fabric ref-counts an opaque payload and
// filters delivery per sink, without ever knowing the payload's
// concrete type.
//
// Acquire is called exactly once before a sink takes possession of a
// payload; returning an error with cos.Kind(err) == cos.FilterMismatch
// tells the fabric to skip this sink - not an error, not counted as a
// delivery, and Release is not called for it. Emit treats any other
// non-nil error the same way: skip, don't count (spec §4.1 step b);
// Send returns such an error to its caller.
//
// Release is called exactly once per successful Acquire, after the
// handler has run (or after a queued event was discarded without
// running - e.g. queue overflow, spec §4.7).
type Ops interface {
	Acquire(payload any, sink *Sink) error
	Release(payload any)
}

// NopOps is used where lifetime is governed entirely by the caller
// (the method/RPC overlay's call context lives on the caller's stack
// frame, spec §4.6) - Acquire always succeeds, Release does nothing.
type NopOps struct{}

func (NopOps) Acquire(any, *Sink) error { return nil }
func (NopOps) Release(any)              {}

// acquire runs ops.Acquire if ops is non-nil, treating a nil Ops as a
// no-op success (spec §3: "If absent, the fabric treats acquire as a
// no-op; in that case a source may have at most one connection.").
func acquire(ops Ops, payload any, sink *Sink) error {
	if ops == nil {
		return nil
	}
	return ops.Acquire(payload, sink)
}

// release runs ops.Release if ops is non-nil; a nil Ops performs no
// release (spec §3: "If absent, no release is performed.").
func release(ops Ops, payload any) {
	if ops == nil {
		return
	}
	ops.Release(payload)
}
