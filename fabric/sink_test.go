package fabric_test

import (
	"time"

	"github.com/weaveio/weave/fabric"
	"github.com/weaveio/weave/internal/cos"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Send", func() {
	It("rejects a sink with no handler", func() {
		err := fabric.Send(&fabric.Sink{}, "x", nil, 0)
		Expect(err).To(HaveOccurred())
		Expect(cos.Kind(err)).To(Equal(cos.InvalidArgument))
	})

	It("runs an immediate sink's handler synchronously", func() {
		var ran bool
		sink := fabric.NewImmediateSink("s", func(any, any) { ran = true }, nil, nil)
		Expect(fabric.Send(sink, "x", nil, 0)).To(Succeed())
		Expect(ran).To(BeTrue())
	})

	It("reports Overflow when a queued sink's queue is full and no one drains it", func() {
		q := fabric.NewQueue("q", 1)
		sink := fabric.NewQueuedSink("s", func(any, any) {}, q, nil, nil)
		Expect(fabric.Send(sink, "first", nil, 0)).To(Succeed())
		err := fabric.Send(sink, "second", nil, 10*time.Millisecond)
		Expect(err).To(HaveOccurred())
		Expect(cos.Kind(err)).To(Equal(cos.Overflow))
	})

	It("lets Send use ops different from the sink's own ops and still balances release", func() {
		sinkOps := &countingOps{}
		callOps := &countingOps{}
		q := fabric.NewQueue("q", 1)
		done := make(chan struct{})
		sink := fabric.NewQueuedSink("s", func(any, any) { close(done) }, q, nil, sinkOps)

		Expect(fabric.Send(sink, "x", callOps, time.Second)).To(Succeed())
		_, err := fabric.Process(q, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Eventually(done, time.Second).Should(BeClosed())

		ca, cr := callOps.snapshot()
		Expect(ca).To(Equal(1))
		Expect(cr).To(Equal(1))
		sa, sr := sinkOps.snapshot()
		Expect(sa).To(Equal(0))
		Expect(sr).To(Equal(0))
	})
})
