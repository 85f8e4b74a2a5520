package event

import (
	"strings"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/boundfmt"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/slot"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Comp", func() {
	var (
		mockCtrl *gomock.Controller
		reporter *MockReporter
		clock    *MockStepTeller
		reg      *slot.Registry
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		reporter = NewMockReporter(mockCtrl)
		clock = NewMockStepTeller(mockCtrl)
		reg = slot.NewRegistry()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	start := func(c *Comp) {
		Expect(c.Configure()).To(Succeed())
		Expect(c.Start(blocks.StartEnv{
			Slots:    reg,
			Reporter: reporter,
			Clock:    clock,
		})).To(Succeed())
	}

	drive := func(c *Comp, flag bool, data ...float64) {
		in, _ := c.Ports().Find("flag")
		in.SetBool(flag)

		for i, v := range data {
			c.Ports().Inputs[i+1].SetFloat64(v)
		}

		c.Step()
	}

	Context("validation", func() {
		DescribeTable("numeric parameters",
			func(b Builder, field string) {
				c := b.Build("B12")

				err := c.Configure()

				Expect(err).To(MatchError(blocks.ErrParameterOutOfRange))
				Expect(err.Error()).To(ContainSubstring(field))
				Expect(c.State()).To(Equal(blocks.Unconfigured))
			},
			Entry("eventId 256", MakeBuilder().WithEventID(256), "eventId"),
			Entry("eventId -1", MakeBuilder().WithEventID(-1), "eventId"),
			Entry("eventType -1", MakeBuilder().WithEventType(-1), "eventType"),
			Entry("eventType 256", MakeBuilder().WithEventType(256), "eventType"),
			Entry("eventMask 2^32",
				MakeBuilder().WithEventMask(1<<32), "eventMask"),
			Entry("eventMask -1", MakeBuilder().WithEventMask(-1), "eventMask"),
			Entry("dataArity 6", MakeBuilder().WithDataArity(6), "dataArity"),
			Entry("dataArity -1", MakeBuilder().WithDataArity(-1), "dataArity"),
		)

		It("should accept the upper bounds", func() {
			c := MakeBuilder().
				WithEventID(255).
				WithEventType(255).
				WithEventMask(1<<32 - 1).
				WithDataArity(5).
				Build("B12")

			Expect(c.Configure()).To(Succeed())
			Expect(c.EventMask()).To(Equal(uint32(0xffffffff)))
			Expect(c.Ports().Inputs).To(HaveLen(6))
		})

		It("should accept a 100 character template", func() {
			format := "%s" + strings.Repeat("x", 98)
			c := MakeBuilder().WithFormat(format).Build("B12")

			Expect(c.Configure()).To(Succeed())
		})

		It("should reject a 101 character template", func() {
			format := "%s" + strings.Repeat("x", 99)
			c := MakeBuilder().WithFormat(format).Build("B12")

			err := c.Configure()

			Expect(err).To(MatchError(blocks.ErrFormatStringTooLong))
			Expect(err.Error()).To(ContainSubstring("formatString"))
		})

		It("should reject a template that does not fit the arity", func() {
			c := MakeBuilder().
				WithFormat("%s %f %f").
				WithDataArity(1).
				Build("B12")

			Expect(c.Configure()).To(MatchError(boundfmt.ErrFormatStringInvalid))
		})
	})

	It("should report the formatted message when the flag is set", func() {
		c := MakeBuilder().
			WithEventID(4).
			WithEventType(2).
			WithEventMask(0xff).
			WithFormat("sid=%s v1=%.2f v2=%.2f").
			WithDataArity(2).
			Build("B12")
		start(c)

		clock.EXPECT().CurrentStep().Return(uint64(3))
		reporter.EXPECT().Report(reporting.Report{
			Step:      3,
			SID:       "B12",
			EventID:   4,
			EventType: 2,
			EventMask: 0xff,
			Message:   "sid=B12 v1=3.14 v2=-2.00",
		})

		drive(c, true, 3.14159, -2.0)

		Expect(c.NumReports()).To(Equal(uint64(1)))
		Expect(string(c.MsgSlot().Bytes()[:24])).
			To(Equal("sid=B12 v1=3.14 v2=-2.00"))
		Expect(c.MsgSlot().Width()).To(Equal(3 + 23 + 1 + 20))
	})

	It("should not report when the flag is clear", func() {
		c := MakeBuilder().
			WithFormat("sid=%s v1=%.2f v2=%.2f").
			WithDataArity(2).
			Build("B12")
		start(c)

		drive(c, false, 3.14159, -2.0)

		Expect(c.NumReports()).To(BeZero())
		Expect(c.FlagSlot().Bool()).To(BeFalse())
	})

	It("should mirror flag and data into the exported slots", func() {
		c := MakeBuilder().WithFormat("%s").WithDataArity(2).Build("B12")
		start(c)

		drive(c, false, 1.5, -7)

		Expect(c.DataSlot().Width()).To(Equal(DataWidth))
		Expect(c.DataSlot().Float64At(0)).To(Equal(1.5))
		Expect(c.DataSlot().Float64At(1)).To(Equal(-7.0))
		Expect(c.DataSlot().Float64At(2)).To(BeZero())
	})

	It("should export the data slot only when there are data inputs", func() {
		c := MakeBuilder().Build("B7")
		start(c)

		_, ok := reg.Find("eventFlag_B7")
		Expect(ok).To(BeTrue())
		_, ok = reg.Find("eventData_B7")
		Expect(ok).To(BeFalse())
		Expect(c.DataSlot()).To(BeNil())

		exported := 0
		for _, info := range reg.Published() {
			if info.Exported {
				exported++
			}
		}
		Expect(exported).To(Equal(1))
	})

	It("should name the data slot after the instance", func() {
		c := MakeBuilder().
			WithFormat("%s %f").
			WithDataArity(1).
			Build("B8")
		start(c)

		s, ok := reg.Find("eventData_B8")

		Expect(ok).To(BeTrue())
		Expect(s).To(BeIdenticalTo(c.DataSlot()))
	})

	It("should reject an unusable instance identifier", func() {
		c := MakeBuilder().
			WithFormat("%s %f").
			WithDataArity(1).
			Build("E 1")

		Expect(c.Configure()).To(MatchError(naming.ErrInvalidIdentifier))
		Expect(reg.NumLive()).To(BeZero())
	})

	It("should publish the message slot at start", func() {
		c := MakeBuilder().Build("B7")
		start(c)

		addr, ok := c.MsgSlot().Address()
		Expect(ok).To(BeTrue())

		info, err := reg.Lookup(addr)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Name).To(Equal("eventMsg"))
		Expect(info.Exported).To(BeFalse())
	})

	It("should store the template in an internal slot", func() {
		c := MakeBuilder().WithFormat("%s up").Build("B7")
		start(c)

		s, ok := reg.Find("B7.eventFormat")

		Expect(ok).To(BeTrue())
		Expect(string(s.Bytes())).To(Equal("%s up"))
		Expect(s.Exported()).To(BeFalse())
	})

	It("should invoke event hooks after reporting", func() {
		c := MakeBuilder().WithFormat("%s").Build("B7")
		start(c)

		var items []any
		c.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == blocks.HookPosEventReported {
				items = append(items, ctx.Item)
			}
		}))

		clock.EXPECT().CurrentStep().Return(uint64(1))
		reporter.EXPECT().Report(gomock.Any())

		drive(c, true)

		Expect(items).To(HaveLen(1))
		Expect(items[0].(reporting.Report).Message).To(Equal("B7"))
	})

	It("should prefer its own reporter", func() {
		own := &reporting.Collector{}
		c := MakeBuilder().WithFormat("%s").WithReporter(own).Build("B7")
		start(c)

		clock.EXPECT().CurrentStep().Return(uint64(1))

		drive(c, true)

		Expect(own.Reports()).To(HaveLen(1))
	})

	It("should expose its run-time parameters", func() {
		c := MakeBuilder().
			WithEventID(1).
			WithEventType(2).
			WithEventMask(3).
			WithFormat("%s %f").
			WithDataArity(1).
			Build("B7")
		Expect(c.Configure()).To(Succeed())

		Expect(c.Params()).To(Equal([]blocks.Param{
			{Name: "event_id", Type: "uint8", Value: uint8(1)},
			{Name: "event_type", Type: "uint8", Value: uint8(2)},
			{Name: "event_mask", Type: "uint32", Value: uint32(3)},
			{Name: "event_fmtstring", Type: "uint8[]", Value: "%s %f"},
			{Name: "event_numdata", Type: "double", Value: 1.0},
		}))
	})

	It("should release all four slots on terminate", func() {
		c := MakeBuilder().WithFormat("%s %f").WithDataArity(1).Build("B7")
		start(c)
		Expect(reg.NumLive()).To(Equal(4))

		c.Terminate()

		Expect(reg.NumLive()).To(BeZero())
	})
})
