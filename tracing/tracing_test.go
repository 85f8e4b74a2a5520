package tracing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ecibridge/blocks/fdc"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/simulation"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tracers", func() {
	var (
		mockCtrl *gomock.Controller
		logger   *logrus.Logger
		logHook  *test.Hook
		sim      *simulation.Simulation
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		logger, logHook = test.NewNullLogger()
		logger.SetLevel(logrus.TraceLevel)

		sim = simulation.MakeBuilder().
			WithLogger(logger).
			WithReporter(reporting.Discard).
			Build()
		sim.AddBlock(fdc.MakeBuilder().WithFdcID(1).Build("F1"))
	})

	AfterEach(func() {
		sim.Terminate()
		mockCtrl.Finish()
	})

	start := func() {
		Expect(sim.Configure()).To(Succeed())
		Expect(sim.Start()).To(Succeed())
	}

	It("should log block transitions and steps", func() {
		CollectTrace(sim, NewLogTracer(logger))
		start()
		Expect(sim.Run(context.Background(), 1, nil)).To(Succeed())

		var states []any
		var steps []string
		for _, e := range logHook.AllEntries() {
			switch e.Message {
			case "block state changed":
				Expect(e.Data["block"]).To(Equal("F1"))
				states = append(states, e.Data["state"])
			case "step begins", "step ends":
				Expect(e.Data["step"]).To(Equal(uint64(1)))
				steps = append(steps, e.Message)
			}
		}

		Expect(fmtAll(states)).To(Equal([]string{
			"Configured", "Started", "Running",
		}))
		Expect(steps).To(Equal([]string{"step begins", "step ends"}))
	})

	It("should refuse to attach the same tracer twice", func() {
		t := NewLogTracer(logger)
		CollectTrace(sim, t)

		Expect(func() { CollectTrace(sim, t) }).To(Panic())
	})

	It("should record flag changes", func() {
		recorder := NewMockDataRecorder(mockCtrl)
		recorder.EXPECT().CreateTable(FlagSampleTable, FlagSample{})

		start()
		CollectTrace(sim, NewFlagSampler(sim.Slots(), recorder))

		gomock.InOrder(
			recorder.EXPECT().InsertData(FlagSampleTable, FlagSample{
				Step: 2, Name: "fdcFlag_F1", Address: 1, Value: true,
			}),
			recorder.EXPECT().InsertData(FlagSampleTable, FlagSample{
				Step: 4, Name: "fdcFlag_F1", Address: 1, Value: false,
			}),
		)

		err := sim.Run(context.Background(), 5, simulation.Stimulus{
			{"F1.flag": false},
			{"F1.flag": true},
			{"F1.flag": true},
			{"F1.flag": false},
		})

		Expect(err).NotTo(HaveOccurred())
	})

	It("should time steps", func() {
		t := NewStepTimeTracer()
		clock := time.Unix(0, 0)
		t.now = func() time.Time {
			clock = clock.Add(5 * time.Millisecond)
			return clock
		}

		Expect(t.AverageTime()).To(BeZero())

		t.Func(hooking.HookCtx{Pos: simulation.HookPosBeforeStep})
		t.Func(hooking.HookCtx{Pos: simulation.HookPosAfterStep})
		t.Func(hooking.HookCtx{Pos: simulation.HookPosAfterStep})

		Expect(t.NumSteps()).To(Equal(uint64(1)))
		Expect(t.TotalTime()).To(Equal(5 * time.Millisecond))
		Expect(t.AverageTime()).To(Equal(5 * time.Millisecond))
		Expect(t.LongestTime()).To(Equal(5 * time.Millisecond))
	})

	It("should time steps of a running model", func() {
		t := NewStepTimeTracer()
		CollectTrace(sim, t)
		start()

		Expect(sim.Run(context.Background(), 3, nil)).To(Succeed())
		Expect(t.NumSteps()).To(Equal(uint64(3)))
	})
})

func fmtAll(vs []any) []string {
	s := make([]string, 0, len(vs))
	for _, v := range vs {
		s = append(s, v.(interface{ String() string }).String())
	}

	return s
}
