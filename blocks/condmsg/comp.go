// Package condmsg provides the conditional message block. It forwards a bus
// message from its input to its output on the steps its flag is set, and
// holds the last forwarded message otherwise.
package condmsg

import (
	"fmt"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/bustype"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/slot"
)

// Comp is a conditional message block.
type Comp struct {
	*blocks.Base

	busType string

	busSize  *slot.Slot
	sendFlag *slot.Slot

	flagIn *blocks.Port
	busIn  *blocks.Port
	busOut *blocks.Port
}

// BusType returns the name of the bus type the block forwards.
func (c *Comp) BusType() string {
	return c.busType
}

// Size returns the bus size resolved at start, or 0 before that.
func (c *Comp) Size() int {
	if c.busSize == nil || c.busSize.Released() {
		return 0
	}

	return int(c.busSize.Int32())
}

// FlagSlot returns the exported send flag slot.
func (c *Comp) FlagSlot() *slot.Slot {
	return c.sendFlag
}

// Output returns the output bus port. It is nil before Start.
func (c *Comp) Output() *blocks.Port {
	return c.busOut
}

// Configure checks that a bus type is named.
func (c *Comp) Configure() error {
	c.MustBeIn("configure", c.Name(), blocks.Unconfigured)

	err := c.CheckInstanceID()
	if err != nil {
		return err
	}

	if c.busType == "" {
		return c.ConfigErr("busTypeName",
			fmt.Errorf("%w: no bus type given", bustype.ErrUnknownBusType))
	}

	c.flagIn = blocks.NewPort("flag", blocks.DirIn, slot.Bool, 1)
	c.SetPorts(blocks.PortLayout{Inputs: []*blocks.Port{c.flagIn}})

	c.MarkConfigured()

	return nil
}

// Start resolves the bus size, allocates the slots and lays out the bus
// ports. The output starts all zero.
func (c *Comp) Start(env blocks.StartEnv) error {
	c.BeginStart(env.Slots)

	if env.Types == nil {
		return c.ConfigErr("busTypeName", fmt.Errorf(
			"%w: no bus type resolver", bustype.ErrUnknownBusType))
	}

	size, err := env.Types.ResolveSize(c.busType)
	if err != nil {
		return c.ConfigErr("busTypeName", err)
	}

	if size > slot.MaxSlotBytes {
		return c.ConfigErr("busTypeName", fmt.Errorf(
			"%w: bus %s is %d bytes, limit is %d",
			slot.ErrAllocation, c.busType, size, slot.MaxSlotBytes))
	}

	err = c.allocateSlots(size)
	if err != nil {
		return err
	}

	c.busIn = blocks.NewPort("busIn", blocks.DirIn, slot.Uint8Array, size)
	c.busOut = blocks.NewPort("busOut", blocks.DirOut, slot.Uint8Array, size)
	c.SetPorts(blocks.PortLayout{
		Inputs:  []*blocks.Port{c.flagIn, c.busIn},
		Outputs: []*blocks.Port{c.busOut},
	})

	err = c.PublishExported()
	if err != nil {
		return c.ConfigErr("cmsgFlag", err)
	}

	c.MarkStarted()

	return nil
}

func (c *Comp) allocateSlots(size int) error {
	var err error

	c.busSize, err = c.Allocate(slot.Spec{
		Name: "busSize", Type: slot.Int32, Width: 1,
	})
	if err != nil {
		return c.ConfigErr("busSize", err)
	}

	c.busSize.SetInt32(int32(size))

	flagName, err := naming.DeriveName(naming.PrefixConditionalMsg, c.Name())
	if err != nil {
		return c.ConfigErr("instanceId", err)
	}

	c.sendFlag, err = c.Allocate(slot.Spec{
		Name: flagName.String(), Type: slot.Bool, Width: 1, Exported: true,
	})
	if err != nil {
		return c.ConfigErr("cmsgFlag", err)
	}

	return nil
}

// Step mirrors the flag and, if it is set, copies the input bus to the
// output byte for byte.
func (c *Comp) Step() {
	c.EnterStep()

	send := c.flagIn.Bool()
	c.sendFlag.SetBool(send)

	size := int(c.busSize.Int32())
	if !send || size <= 0 {
		return
	}

	copy(c.busOut.Bytes()[:size], c.busIn.Bytes()[:size])
}

// Params lists the run-time parameters. The block has none.
func (c *Comp) Params() []blocks.Param {
	return nil
}
