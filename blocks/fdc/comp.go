// Package fdc provides the fault detection flag block. The block raises an
// exported flag that the flight software polls to learn about a fault.
package fdc

import (
	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/slot"
)

// Comp is a fault detection flag block.
type Comp struct {
	*blocks.Base

	rawFdcID int64
	fdcID    uint8

	flagIn *blocks.Port
	flag   *slot.Slot
}

// FdcID returns the validated fault detection ID.
func (c *Comp) FdcID() uint8 {
	return c.fdcID
}

// Flag returns the exported flag slot. It is nil before Start.
func (c *Comp) Flag() *slot.Slot {
	return c.flag
}

// Configure validates the parameters.
func (c *Comp) Configure() error {
	c.MustBeIn("configure", c.Name(), blocks.Unconfigured)

	err := c.CheckInstanceID()
	if err != nil {
		return err
	}

	err = blocks.CheckRange(c.rawFdcID, 0, 255)
	if err != nil {
		return c.ConfigErr("fdcId", err)
	}

	c.fdcID = uint8(c.rawFdcID)
	c.flagIn = blocks.NewPort("flag", blocks.DirIn, slot.Bool, 1)
	c.SetPorts(blocks.PortLayout{Inputs: []*blocks.Port{c.flagIn}})

	c.MarkConfigured()

	return nil
}

// Start allocates and publishes the flag slot.
func (c *Comp) Start(env blocks.StartEnv) error {
	c.BeginStart(env.Slots)

	name, err := naming.DeriveName(naming.PrefixFdcFlag, c.Name())
	if err != nil {
		return c.ConfigErr("instanceId", err)
	}

	c.flag, err = c.Allocate(slot.Spec{
		Name:     name.String(),
		Type:     slot.Bool,
		Width:    1,
		Exported: true,
	})
	if err != nil {
		return c.ConfigErr("fdcFlag", err)
	}

	err = c.PublishExported()
	if err != nil {
		return c.ConfigErr("fdcFlag", err)
	}

	c.MarkStarted()

	return nil
}

// Step copies the flag input into the exported flag, every step.
func (c *Comp) Step() {
	c.EnterStep()

	c.flag.SetBool(c.flagIn.Bool())
}

// Params lists the run-time parameters.
func (c *Comp) Params() []blocks.Param {
	return []blocks.Param{
		{Name: "fdc_id", Type: "uint8", Value: c.fdcID},
	}
}
