package fabric_test

import (
	"sync"
	"time"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/internal/cos"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// countingOps is a tiny fabric.Ops test double that counts acquire and
// release calls, and can be made (rejectAll) to reject every acquire with
// a FilterMismatch to exercise the filter-skip path.
type countingOps struct {
	mu        sync.Mutex
	acquired  int
	released  int
	rejectAll bool
}

func (o *countingOps) Acquire(_ any, _ *fabric.Sink) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rejectAll {
		return cos.NewErr(cos.FilterMismatch, "rejected by test double")
	}
	o.acquired++
	return nil
}

func (o *countingOps) Release(any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released++
}

func (o *countingOps) snapshot() (acquired, released int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acquired, o.released
}

var _ = Describe("Source.Emit", func() {
	It("rejects a nil payload without touching any sink", func() {
		ops := &countingOps{}
		src := fabric.NewSource("s", ops)
		sink := fabric.NewImmediateSink("sink", func(any, any) {}, nil, ops)
		src.Connect(sink)

		n, err := src.Emit(nil, 0)
		Expect(n).To(Equal(0))
		Expect(err).To(HaveOccurred())
		Expect(cos.Kind(err)).To(Equal(cos.InvalidArgument))
		a, r := ops.snapshot()
		Expect(a).To(Equal(0))
		Expect(r).To(Equal(0))
	})

	It("delivers to every connected immediate sink and balances acquire/release", func() {
		ops := &countingOps{}
		src := fabric.NewSource("s", ops)
		var got []any
		var mu sync.Mutex
		handler := func(p any, _ any) {
			mu.Lock()
			got = append(got, p)
			mu.Unlock()
		}
		src.Connect(fabric.NewImmediateSink("a", handler, nil, ops))
		src.Connect(fabric.NewImmediateSink("b", handler, nil, ops))

		n, err := src.Emit("payload", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		mu.Lock()
		Expect(got).To(Equal([]any{"payload", "payload"}))
		mu.Unlock()

		a, r := ops.snapshot()
		Expect(a).To(Equal(2))
		Expect(r).To(Equal(2))
	})

	It("skips sinks whose ops reject the payload without counting it as delivered", func() {
		ops := &countingOps{rejectAll: true}
		src := fabric.NewSource("s", ops)
		src.Connect(fabric.NewImmediateSink("a", func(any, any) {}, nil, ops))

		n, err := src.Emit("payload", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("requires non-nil ops once more than one sink is connected", func() {
		src := fabric.NewSource("s", nil)
		src.Connect(fabric.NewImmediateSink("a", func(any, any) {}, nil, nil))
		src.Connect(fabric.NewImmediateSink("b", func(any, any) {}, nil, nil))

		_, err := src.Emit("x", 0)
		Expect(err).To(HaveOccurred())
		Expect(cos.Kind(err)).To(Equal(cos.InvalidArgument))
	})

	It("delivers to a queued sink and Process runs its handler", func() {
		ops := &countingOps{}
		src := fabric.NewSource("s", ops)
		q := fabric.NewQueue("q", 4)
		done := make(chan struct{})
		sink := fabric.NewQueuedSink("a", func(any, any) { close(done) }, q, nil, ops)
		src.Connect(sink)

		n, err := src.Emit("x", time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))

		_, perr := fabric.Process(q, time.Second)
		Expect(perr).NotTo(HaveOccurred())
		Eventually(done, time.Second).Should(BeClosed())

		a, r := ops.snapshot()
		Expect(a).To(Equal(1))
		Expect(r).To(Equal(1))
	})

	It("ConnectRuntime is gated by Config.EnableRuntimeWiring", func() {
		orig := fabric.Rom.Get()
		defer fabric.Rom.Set(orig)
		fabric.Rom.Set(fabric.Config{})

		src := fabric.NewSource("s", &countingOps{})
		sink := fabric.NewImmediateSink("a", func(any, any) {}, nil, nil)
		_, err := src.ConnectRuntime(sink)
		Expect(err).To(HaveOccurred())

		cfg := fabric.DefaultConfig()
		cfg.EnableRuntimeWiring = true
		fabric.Rom.Set(cfg)
		conn, err := src.ConnectRuntime(sink)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.DisconnectRuntime(conn)).To(Succeed())
	})
})
