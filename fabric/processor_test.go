package fabric_test

import (
	"context"
	"time"

	"github.com/weaveio/weave/fabric"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Processor", func() {
	It("drives a queued sink's handler until Stop is called", func() {
		q := fabric.NewQueue("q", 8)
		delivered := make(chan any, 8)
		sink := fabric.NewQueuedSink("s", func(p any, _ any) { delivered <- p }, q, nil, nil)

		p := fabric.NewProcessor(q, 2, 10*time.Millisecond)
		p.Start(context.Background())
		defer p.Stop()

		Expect(fabric.Send(sink, "x", nil, time.Second)).To(Succeed())
		Eventually(delivered, time.Second).Should(Receive(Equal("x")))
	})

	It("Stop returns once every worker goroutine has exited", func() {
		q := fabric.NewQueue("q", 1)
		p := fabric.NewProcessor(q, 3, 5*time.Millisecond)
		p.Start(context.Background())
		p.Stop() // must not hang
	})
})
