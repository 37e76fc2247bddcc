package fabric

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/weaveio/weave/hk"
	"github.com/weaveio/weave/internal/nlog"
	"github.com/weaveio/weave/internal/sys"
)

// Processor drives one or more queues with a pool of worker goroutines,
// calling Process in a loop until its context is cancelled. It is the
// "externally supplied worker" the spec (§2 component D, §5) assumes
// exists but deliberately does not define - most embedded deployments
// hand-roll this loop per thread; here it is a small reusable type
// built on golang.org/x/sync/errgroup so Stop() can wait for every
// worker to actually return.
type Processor struct {
	queue    *Queue
	workers  int
	pollWait time.Duration
	g        *errgroup.Group
	cancel   context.CancelFunc
	idle     atomic.Int64
	hkKey    string
}

// NewProcessor builds a processor that drains queue with the given
// number of worker goroutines, each blocking up to pollWait per
// Process() call before checking for cancellation again. workers<1
// defaults to internal/sys.NumCPU() - one worker per available core,
// the embedded-systems-appropriate default when a caller has no
// stronger opinion - rather than a flat 1.
func NewProcessor(queue *Queue, workers int, pollWait time.Duration) *Processor {
	if workers < 1 {
		workers = sys.NumCPU()
	}
	if pollWait <= 0 {
		pollWait = 100 * time.Millisecond
	}
	return &Processor{queue: queue, workers: workers, pollWait: pollWait}
}

// Start launches the worker goroutines and registers an idle-drain
// housekeeping callback (spec §12.3) keyed by the queue's instance
// identity so two processors over identically-named queues never
// collide in the hk registry. Safe to call once.
func (p *Processor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	p.cancel = cancel
	p.g = g
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			p.run(gctx)
			return nil
		})
	}
	p.hkKey = p.queue.Name() + "." + p.queue.InstanceID() + hk.NameSuffix
	hk.Reg(p.hkKey, p.reportIdle, time.Minute)
}

func (p *Processor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := Process(p.queue, p.pollWait)
		if err != nil {
			nlog.Errorf("process %s: %v", p.queue.Name(), err)
			continue
		}
		if n == 0 {
			p.idle.Inc()
			continue // nothing arrived within pollWait; recheck ctx
		}
	}
}

// reportIdle logs the cumulative count of empty polls since the last
// report - a cheap signal that a queue's producers have gone quiet,
// useful for noticing a stuck upstream source (spec §12.3 idle-drain
// stats). Rescheduled every minute until Stop unregisters it.
func (p *Processor) reportIdle() time.Duration {
	nlog.Infof("processor %s: idle polls since last report = %d", p.queue.Name(), p.idle.Swap(0))
	return time.Minute
}

// Stop cancels all workers, waits for them to return, and unregisters
// the idle-drain housekeeping callback.
func (p *Processor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.g != nil {
		_ = p.g.Wait()
	}
	if p.hkKey != "" {
		hk.Unreg(p.hkKey)
	}
}
