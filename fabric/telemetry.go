package fabric

import "github.com/weaveio/weave/fabric/stats"

// globalStats is the process-wide stats registry, in the style of the
// teacher's single global "owner" objects (e.g. cmn.GCO): one instance
// per process. Counters are plain atomics and are always updated
// (effectively free); Prometheus export is off until EnableStats(true)
// is called. Config.CollectStats is not read by this package: setting it
// through Rom changes neither the counters nor the export.
var globalStats = stats.New("fabric", false)

// Stats returns the process-wide stats registry.
func Stats() *stats.Registry { return globalStats }

// EnableStats rebuilds the global registry's Prometheus export with
// collection on or off (e.g. in response to a Config change).
// Counters already accumulated are preserved.
func EnableStats(enabled bool) {
	prev := globalStats
	globalStats = stats.New("fabric", enabled)
	globalStats.C.Acquired.Store(prev.C.Acquired.Load())
	globalStats.C.Released.Store(prev.C.Released.Load())
	globalStats.C.Enqueued.Store(prev.C.Enqueued.Load())
	globalStats.C.Delivered.Store(prev.C.Delivered.Load())
	globalStats.C.FilterSkipped.Store(prev.C.FilterSkipped.Load())
	globalStats.C.DroppedOverflow.Store(prev.C.DroppedOverflow.Load())
	globalStats.C.StructuralErrors.Store(prev.C.StructuralErrors.Load())
	globalStats.C.LifecycleViolations.Store(prev.C.LifecycleViolations.Load())
	globalStats.C.DuplicateConnections.Store(prev.C.DuplicateConnections.Load())
}
