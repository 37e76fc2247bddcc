// Package wiring implements the compile-time connection registry (spec
// §9 "wiring is resolved at compile/link time, not runtime discovery"):
// packages that own a fabric.Source or fabric.Sink register a small
// closure that connects them, and a single ordered Init() call at
// process startup runs every registered closure once, in registration
// order.
//
// This is the idiomatic Go stand-in for the spec's static
// source/sink-table generation: Go has no link-time code generation
// step available here, so registration is a plain ordered slice guarded
// by a mutex, in the shape of the teacher's xact/xreg registry (init-
// time Reg calls from many packages, one ordered Init driving them all)
// adapted from "renewable xaction factories" to "fan-out connections".
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package wiring

import (
	"fmt"
	"sync"

	"github.com/weaveio/weave/internal/nlog"
)

// Wire connects one source to one sink. Implementations are expected
// to be idempotent and side-effect-free beyond the Connect call itself
// - Init may run in tests more than once per process.
type Wire func() error

type entry struct {
	name string
	wire Wire
}

// Registry collects Wire closures contributed by init() functions
// throughout a program and runs them in a single deterministic pass.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	done    bool
}

// Default is the process-wide registry most callers use, mirroring the
// teacher's single package-level xreg registry.
var Default = &Registry{}

// Reg registers a named wire. Safe to call from package init().
func (r *Registry) Reg(name string, w Wire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{name: name, wire: w})
}

// Init runs every registered wire in registration order, stopping and
// returning the first error encountered (spec §9: wiring failures are
// structural and should fail the process at startup, not at first
// Emit). Calling Init more than once re-runs every wire; Wire
// implementations must tolerate that.
func (r *Registry) Init() error {
	r.mu.Lock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		if err := e.wire(); err != nil {
			return fmt.Errorf("wiring %q: %w", e.name, err)
		}
		nlog.Infof("wiring: connected %s", e.name)
	}
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	return nil
}

// Done reports whether Init has run to completion without error at
// least once; an Init that stopped on an error does not set it.
func (r *Registry) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Reg registers w on the Default registry.
func Reg(name string, w Wire) { Default.Reg(name, w) }

// Init runs the Default registry.
func Init() error { return Default.Init() }
