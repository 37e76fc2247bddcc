/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	"time"

	"github.com/weaveio/weave/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	It("fires a registered callback and reschedules it", func() {
		fired := make(chan struct{}, 4)
		hk.Reg("fires.gc", func() time.Duration {
			fired <- struct{}{}
			return 15 * time.Millisecond
		}, 15*time.Millisecond)
		defer hk.Unreg("fires.gc")

		Eventually(fired, time.Second).Should(Receive())
		Eventually(fired, time.Second).Should(Receive())
	})

	It("unregisters a callback once it returns a non-positive interval", func() {
		var calls int
		done := make(chan struct{})
		hk.Reg("once.gc", func() time.Duration {
			calls++
			close(done)
			return 0
		}, 10*time.Millisecond)

		Eventually(done, time.Second).Should(BeClosed())
		time.Sleep(50 * time.Millisecond)
		Expect(calls).To(Equal(1))
	})

	It("Unreg on an absent name is a no-op", func() {
		Expect(func() { hk.Unreg("never-registered.gc") }).NotTo(Panic())
	})
})
