// Package stats implements the `collect_stats` configuration option
// (spec §6): per-fabric-instance atomic counters, optionally exported
// through a prometheus.Registry a host process can scrape.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// Counters are always updated (they are plain atomics, effectively
// free); Enabled only gates whether they are additionally registered
// with Prometheus and whether callers bother reading them back.
type Counters struct {
	Acquired             atomic.Int64 // acquire() returned OK
	Released             atomic.Int64 // release() invoked
	Enqueued             atomic.Int64 // event handed to a queued sink's Queue
	Delivered            atomic.Int64 // handler actually invoked (immediate + drained)
	FilterSkipped        atomic.Int64 // acquire() returned FilterMismatch
	DroppedOverflow      atomic.Int64 // queue full at deadline
	StructuralErrors     atomic.Int64 // InvalidArgument short-circuits
	LifecycleViolations  atomic.Int64 // defensive: magic mismatch, acquire w/o release, etc.
	DuplicateConnections atomic.Int64 // same (source,sink) connected more than once
}

// Registry bundles a Counters with an (optional) prometheus.Registry.
type Registry struct {
	Enabled bool
	C       Counters
	prom    *prometheus.Registry
	name    string

	// poolPressure exports packet.Pool.Pressure(), one series per pool
	// instance (labelled by internal/cos.GenInstanceID) - spec §11,
	// §12.3. nil when stats collection is disabled.
	poolPressure *prometheus.GaugeVec
}

func New(name string, enabled bool) *Registry {
	r := &Registry{Enabled: enabled, name: name}
	if enabled {
		r.prom = prometheus.NewRegistry()
		r.register()
	}
	return r
}

func (r *Registry) register() {
	mk := func(field string, get func() int64) {
		r.prom.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "weave",
			Subsystem: r.name,
			Name:      field,
		}, func() float64 { return float64(get()) }))
	}
	mk("acquired_total", r.C.Acquired.Load)
	mk("released_total", r.C.Released.Load)
	mk("enqueued_total", r.C.Enqueued.Load)
	mk("delivered_total", r.C.Delivered.Load)
	mk("filter_skipped_total", r.C.FilterSkipped.Load)
	mk("dropped_overflow_total", r.C.DroppedOverflow.Load)
	mk("structural_errors_total", r.C.StructuralErrors.Load)
	mk("lifecycle_violations_total", r.C.LifecycleViolations.Load)
	mk("duplicate_connections_total", r.C.DuplicateConnections.Load)

	r.poolPressure = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "weave",
		Subsystem: r.name,
		Name:      "packet_pool_pressure",
	}, []string{"pool"})
	r.prom.MustRegister(r.poolPressure)
}

// SetPoolPressure records the current fraction-in-use, in [0,1], for
// the packet pool identified by instanceID. A no-op when stats
// collection is disabled - called unconditionally by packet.Pool's
// housekeeping callback regardless of Enabled, since the check here is
// cheaper than having every caller test Enabled itself.
func (r *Registry) SetPoolPressure(instanceID string, pressure float64) {
	if r.poolPressure == nil {
		return
	}
	r.poolPressure.WithLabelValues(instanceID).Set(pressure)
}

// Prometheus returns the registry for a host process to scrape, or nil
// when stats collection is disabled.
func (r *Registry) Prometheus() *prometheus.Registry { return r.prom }
