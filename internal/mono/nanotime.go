// Package mono provides a monotonic clock for timestamping packet
// metadata and computing absolute deadlines from relative timeouts.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since package init, read from
// time.Now()'s monotonic reading; unlike a wall clock it never runs
// backward under NTP adjustment.
func NanoTime() int64 { return time.Since(start).Nanoseconds() }

// Since returns the duration elapsed since a prior NanoTime() reading.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }
