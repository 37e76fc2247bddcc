// Package hk provides a mechanism for registering cleanup/maintenance
// callbacks invoked at specified intervals - used by packet.Pool to
// report pool-pressure stats and by fabric.Processor to report
// idle-drain stats (spec §12.3: genuinely ambient observability
// plumbing, not a new functional module).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"sync"
	"time"

	"github.com/weaveio/weave/internal/nlog"
)

// NameSuffix is appended to names registered for periodic garbage
// collection, mirroring the teacher's convention of namespacing
// transport-endpoint housekeeping entries.
const NameSuffix = ".gc"

// Func runs one maintenance pass and returns the interval to wait
// before running again.
type Func func() time.Duration

type item struct {
	name     string
	f        Func
	interval time.Duration
	due      time.Time
}

// HK is a registry of periodic callbacks driven by a single goroutine.
type HK struct {
	mu      sync.Mutex
	items   map[string]*item
	started chan struct{}
	stop    chan struct{}
	tick    time.Duration
	once    sync.Once
}

// DefaultHK is the process-wide housekeeper, in the teacher's
// single-global-owner style (cf. fabric's globalStats).
var DefaultHK = New(time.Second)

func New(tick time.Duration) *HK {
	return &HK{items: make(map[string]*item), started: make(chan struct{}), stop: make(chan struct{}), tick: tick}
}

// Reg registers f to run every interval, starting after the first
// interval elapses.
func (hk *HK) Reg(name string, f Func, interval time.Duration) {
	hk.mu.Lock()
	defer hk.mu.Unlock()
	hk.items[name] = &item{name: name, f: f, interval: interval, due: time.Now().Add(interval)}
}

// Unreg removes a previously registered callback; a no-op if absent.
func (hk *HK) Unreg(name string) {
	hk.mu.Lock()
	defer hk.mu.Unlock()
	delete(hk.items, name)
}

// Run drives the registry until Stop is called. Intended to run on its
// own goroutine for the lifetime of the process.
func (hk *HK) Run() {
	hk.once.Do(func() { close(hk.started) })
	t := time.NewTicker(hk.tick)
	defer t.Stop()
	for {
		select {
		case <-hk.stop:
			return
		case now := <-t.C:
			hk.fire(now)
		}
	}
}

func (hk *HK) fire(now time.Time) {
	hk.mu.Lock()
	due := make([]*item, 0, 4)
	for _, it := range hk.items {
		if !now.Before(it.due) {
			due = append(due, it)
		}
	}
	hk.mu.Unlock()

	for _, it := range due {
		next := it.f()
		if next <= 0 {
			hk.Unreg(it.name)
			continue
		}
		hk.mu.Lock()
		if cur, ok := hk.items[it.name]; ok && cur == it {
			it.interval = next
			it.due = now.Add(next)
		}
		hk.mu.Unlock()
	}
}

// Stop terminates Run.
func (hk *HK) Stop() { close(hk.stop) }

// WaitStarted blocks until Run has begun ticking - used by tests that
// register callbacks and then need a guarantee the housekeeper is live.
func (hk *HK) WaitStarted() { <-hk.started }

// package-level conveniences over DefaultHK, mirroring transport's use
// of hk.Unreg(...) directly at the package level.
func Reg(name string, f Func, interval time.Duration) { DefaultHK.Reg(name, f, interval) }
func Unreg(name string)                                { DefaultHK.Unreg(name) }
func WaitStarted()                                      { DefaultHK.WaitStarted() }

// TestInit resets DefaultHK for a fresh test run.
func TestInit() {
	DefaultHK = New(10 * time.Millisecond)
	nlog.Infof("hk: test-init")
}
