// Package blocks holds what the bridge blocks share: the lifecycle every
// block goes through, typed port buffers, run-time parameters, and the
// configuration errors that abort a model build.
package blocks

import (
	"github.com/sarchlab/ecibridge/bustype"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/slot"
)

// A Block is one placement of a bridge block in a model.
//
// Configure and Start may fail; Step never does. Terminate releases every
// resource the block holds and may be called from any state.
type Block interface {
	naming.Named
	hooking.Hookable

	Kind() Kind
	State() State

	Configure() error
	Start(env StartEnv) error
	Step()
	Terminate()

	Ports() PortLayout
	Slots() []*slot.Slot
	Params() []Param
}

// A StepTeller tells which step is being executed.
type StepTeller interface {
	CurrentStep() uint64
}

// StartEnv carries the services a block needs when the simulation starts.
type StartEnv struct {
	Slots    *slot.Registry
	Types    bustype.Resolver
	Reporter reporting.Reporter
	Clock    StepTeller
}

// Param is a run-time parameter a block exposes to the target side.
type Param struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}
