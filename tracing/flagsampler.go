package tracing

import (
	"github.com/sarchlab/ecibridge/datarecording"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/simulation"
	"github.com/sarchlab/ecibridge/slot"
)

// FlagSampleTable is the table a FlagSampler writes to.
const FlagSampleTable = "flag_samples"

// FlagSample is one change of an exported flag.
type FlagSample struct {
	Step    uint64
	Name    string
	Address uint64
	Value   bool
}

// FlagSampler records exported boolean slots at the end of each step, one row
// per change. Slots start zeroed, so a flag is first recorded when it becomes
// true.
type FlagSampler struct {
	slots    *slot.Registry
	recorder datarecording.DataRecorder
	last     map[slot.Address]bool
}

// NewFlagSampler creates the flag sample table and returns a sampler over
// the registry.
func NewFlagSampler(
	slots *slot.Registry,
	recorder datarecording.DataRecorder,
) *FlagSampler {
	recorder.CreateTable(FlagSampleTable, FlagSample{})

	return &FlagSampler{
		slots:    slots,
		recorder: recorder,
		last:     make(map[slot.Address]bool),
	}
}

// Func samples the flags after each step.
func (s *FlagSampler) Func(ctx hooking.HookCtx) {
	if ctx.Pos != simulation.HookPosAfterStep {
		return
	}

	for _, info := range s.slots.Published() {
		if !isFlag(info) {
			continue
		}

		data, err := s.slots.Read(info.Address)
		if err != nil {
			continue
		}

		v := data[0] != 0
		if s.last[info.Address] == v {
			continue
		}

		s.last[info.Address] = v
		s.recorder.InsertData(FlagSampleTable, FlagSample{
			Step:    ctx.Step,
			Name:    info.Name,
			Address: uint64(info.Address),
			Value:   v,
		})
	}
}

func isFlag(info slot.Info) bool {
	return info.Exported && info.Type == slot.Bool && info.Width == 1
}
