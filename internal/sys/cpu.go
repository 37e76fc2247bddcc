// Package sys provides the small amount of host-topology information
// used to size default worker counts (e.g. fabric.Processor), adapted
// from the teacher's sys/cpu.go with the container cgroup-quota
// detection dropped - an embedded deployment targeting this fabric
// runs on a fixed, known core count, not inside an elastic container
// scheduler.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package sys

import "runtime"

// NumCPU returns the number of logical CPUs usable by the current
// process, per runtime.NumCPU.
func NumCPU() int { return runtime.NumCPU() }

// SetMaxProcs pins GOMAXPROCS to n (n<=0 sets it to runtime.NumCPU),
// returning the previous value - used by long-running embedded hosts
// that want a deterministic, explicit worker/core mapping rather than
// whatever the runtime auto-detected at boot.
func SetMaxProcs(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return runtime.GOMAXPROCS(n)
}
