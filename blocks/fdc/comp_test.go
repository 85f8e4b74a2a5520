package fdc

import (
	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/slot"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Comp", func() {
	var (
		reg *slot.Registry
	)

	BeforeEach(func() {
		reg = slot.NewRegistry()
	})

	DescribeTable("fdcId validation",
		func(id int64, ok bool) {
			c := MakeBuilder().WithFdcID(id).Build("F1")

			err := c.Configure()

			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(c.State()).To(Equal(blocks.Configured))
				return
			}

			Expect(err).To(MatchError(blocks.ErrParameterOutOfRange))
			Expect(err.Error()).To(ContainSubstring("fdcId"))
			Expect(c.State()).To(Equal(blocks.Unconfigured))
		},
		Entry("zero", int64(0), true),
		Entry("max", int64(255), true),
		Entry("negative", int64(-1), false),
		Entry("too large", int64(256), false),
	)

	It("should reject an unusable instance identifier", func() {
		c := MakeBuilder().Build("F 1")

		Expect(c.Configure()).To(MatchError(naming.ErrInvalidIdentifier))
	})

	It("should mirror the flag level every step", func() {
		c := MakeBuilder().WithFdcID(9).Build("F1")
		Expect(c.Configure()).To(Succeed())
		Expect(c.Start(blocks.StartEnv{Slots: reg})).To(Succeed())

		addr, ok := c.Flag().Address()
		Expect(ok).To(BeTrue())

		in, _ := c.Ports().Find("flag")
		var seen []bool

		for _, v := range []bool{true, false, true} {
			in.SetBool(v)
			c.Step()

			data, err := reg.Read(addr)
			Expect(err).NotTo(HaveOccurred())
			seen = append(seen, data[0] != 0)
		}

		Expect(seen).To(Equal([]bool{true, false, true}))
		Expect(c.State()).To(Equal(blocks.Running))
	})

	It("should export the flag under its derived name", func() {
		c := MakeBuilder().Build("F1")
		Expect(c.Configure()).To(Succeed())
		Expect(c.Start(blocks.StartEnv{Slots: reg})).To(Succeed())

		s, ok := reg.Find("fdcFlag_F1")

		Expect(ok).To(BeTrue())
		Expect(s.Type()).To(Equal(slot.Bool))
		Expect(s.Width()).To(Equal(1))
		Expect(s.Exported()).To(BeTrue())
	})

	It("should report fdc_id as a run-time parameter", func() {
		c := MakeBuilder().WithFdcID(42).Build("F1")
		Expect(c.Configure()).To(Succeed())

		Expect(c.Params()).To(Equal([]blocks.Param{
			{Name: "fdc_id", Type: "uint8", Value: uint8(42)},
		}))
	})

	It("should fail to start when the flag name is taken", func() {
		first := MakeBuilder().Build("F1")
		second := MakeBuilder().Build("F1")
		Expect(first.Configure()).To(Succeed())
		Expect(second.Configure()).To(Succeed())
		Expect(first.Start(blocks.StartEnv{Slots: reg})).To(Succeed())

		err := second.Start(blocks.StartEnv{Slots: reg})

		Expect(err).To(MatchError(slot.ErrNameCollision))
		second.Terminate()
		Expect(reg.NumLive()).To(Equal(1))
	})

	It("should release its slot on terminate", func() {
		c := MakeBuilder().Build("F1")
		Expect(c.Configure()).To(Succeed())
		Expect(c.Start(blocks.StartEnv{Slots: reg})).To(Succeed())

		c.Terminate()

		Expect(reg.NumLive()).To(Equal(0))
		Expect(reg.Published()).To(BeEmpty())
	})
})
