package fabric_test

import (
	"time"

	"github.com/weaveio/weave/fabric"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Process", func() {
	It("returns 0 with no error when nothing arrives before the timeout", func() {
		q := fabric.NewQueue("q", 4)
		n, err := fabric.Process(q, 10*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("rejects a nil queue", func() {
		_, err := fabric.Process(nil, 0)
		Expect(err).To(HaveOccurred())
	})

	It("drains every immediately-available event in one call", func() {
		q := fabric.NewQueue("q", 8)
		var count int
		sink := fabric.NewQueuedSink("s", func(any, any) { count++ }, q, nil, nil)
		for i := 0; i < 5; i++ {
			Expect(fabric.Send(sink, i, nil, 0)).To(Succeed())
		}
		n, err := fabric.Process(q, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(5))
		Expect(count).To(Equal(5))
	})
})
