// Package event provides the event block. When its flag input is set, the
// block formats a message from its template, its identifier and its data
// inputs, and reports it together with its event ID, type and mask.
package event

import (
	"fmt"
	"math"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/boundfmt"
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/reporting"
	"github.com/sarchlab/ecibridge/slot"
)

// MaxFormatLen is the longest template accepted, in bytes.
const MaxFormatLen = 100

// DataWidth is the width of the exported data slot, independent of the
// number of data inputs in use.
const DataWidth = boundfmt.MaxArity

// Comp is an event block.
type Comp struct {
	*blocks.Base

	rawEventID   int64
	rawEventType int64
	rawEventMask int64
	rawArity     int64
	format       string

	eventID   uint8
	eventType uint8
	eventMask uint32
	arity     int
	tmpl      *boundfmt.Template

	reporter reporting.Reporter
	clock    blocks.StepTeller

	flagIn *blocks.Port
	dataIn []*blocks.Port

	flag      *slot.Slot
	data      *slot.Slot
	formatBuf *slot.Slot
	msg       *slot.Slot

	args       [boundfmt.MaxArity]float64
	numReports uint64
}

// EventID returns the validated event ID.
func (c *Comp) EventID() uint8 {
	return c.eventID
}

// EventType returns the validated event type.
func (c *Comp) EventType() uint8 {
	return c.eventType
}

// EventMask returns the validated event mask.
func (c *Comp) EventMask() uint32 {
	return c.eventMask
}

// Arity returns the number of data inputs.
func (c *Comp) Arity() int {
	return c.arity
}

// Format returns the template source.
func (c *Comp) Format() string {
	return c.format
}

// FlagSlot returns the exported flag slot.
func (c *Comp) FlagSlot() *slot.Slot {
	return c.flag
}

// DataSlot returns the exported data slot. It is nil when the block has no
// data inputs.
func (c *Comp) DataSlot() *slot.Slot {
	return c.data
}

// MsgSlot returns the slot holding the last message.
func (c *Comp) MsgSlot() *slot.Slot {
	return c.msg
}

// NumReports returns how many events the block has reported.
func (c *Comp) NumReports() uint64 {
	return c.numReports
}

// Configure validates the parameters and compiles the template.
func (c *Comp) Configure() error {
	c.MustBeIn("configure", c.Name(), blocks.Unconfigured)

	err := c.CheckInstanceID()
	if err != nil {
		return err
	}

	err = c.validateParams()
	if err != nil {
		return err
	}

	c.tmpl, err = boundfmt.Compile(c.format, c.arity)
	if err != nil {
		return c.ConfigErr("formatString", err)
	}

	c.flagIn = blocks.NewPort("flag", blocks.DirIn, slot.Bool, 1)
	layout := blocks.PortLayout{Inputs: []*blocks.Port{c.flagIn}}

	c.dataIn = make([]*blocks.Port, c.arity)
	for i := range c.dataIn {
		c.dataIn[i] = blocks.NewPort(
			fmt.Sprintf("data%d", i+1), blocks.DirIn, slot.Float64, 1)
		layout.Inputs = append(layout.Inputs, c.dataIn[i])
	}

	c.SetPorts(layout)
	c.MarkConfigured()

	return nil
}

func (c *Comp) validateParams() error {
	checks := []struct {
		field  string
		v      int64
		lo, hi int64
	}{
		{"eventId", c.rawEventID, 0, math.MaxUint8},
		{"eventType", c.rawEventType, 0, math.MaxUint8},
		{"eventMask", c.rawEventMask, 0, math.MaxUint32},
	}

	for _, check := range checks {
		err := blocks.CheckRange(check.v, check.lo, check.hi)
		if err != nil {
			return c.ConfigErr(check.field, err)
		}
	}

	if len(c.format) > MaxFormatLen {
		return c.ConfigErr("formatString", fmt.Errorf(
			"%w: %d characters, limit is %d",
			blocks.ErrFormatStringTooLong, len(c.format), MaxFormatLen))
	}

	err := blocks.CheckRange(c.rawArity, 0, boundfmt.MaxArity)
	if err != nil {
		return c.ConfigErr("dataArity", err)
	}

	c.eventID = uint8(c.rawEventID)
	c.eventType = uint8(c.rawEventType)
	c.eventMask = uint32(c.rawEventMask)
	c.arity = int(c.rawArity)

	return nil
}

// Start allocates the flag, data, template and message slots. It publishes
// the exported ones and the message slot, which the ECI table points at.
func (c *Comp) Start(env blocks.StartEnv) error {
	c.BeginStart(env.Slots)

	if c.reporter == nil {
		c.reporter = env.Reporter
	}

	if c.reporter == nil {
		c.reporter = reporting.Discard
	}

	c.clock = env.Clock

	err := c.allocateSlots()
	if err != nil {
		return err
	}

	c.formatBuf.SetBytes([]byte(c.format))

	err = c.PublishExported()
	if err != nil {
		return c.ConfigErr("eventFlag", err)
	}

	_, err = c.Publish(c.msg)
	if err != nil {
		return c.ConfigErr("eventMsg", err)
	}

	c.MarkStarted()

	return nil
}

func (c *Comp) allocateSlots() error {
	flagName, err := naming.DeriveName(naming.PrefixEventFlag, c.Name())
	if err != nil {
		return c.ConfigErr("instanceId", err)
	}

	c.flag, err = c.Allocate(slot.Spec{
		Name: flagName.String(), Type: slot.Bool, Width: 1, Exported: true,
	})
	if err != nil {
		return c.ConfigErr("eventFlag", err)
	}

	if c.arity > 0 {
		var dataName naming.StorageName

		dataName, err = naming.DeriveName(naming.PrefixEventData, c.Name())
		if err != nil {
			return c.ConfigErr("instanceId", err)
		}

		c.data, err = c.Allocate(slot.Spec{
			Name:     dataName.String(),
			Type:     slot.Float64,
			Width:    DataWidth,
			Exported: true,
		})
		if err != nil {
			return c.ConfigErr("eventData", err)
		}
	}

	c.formatBuf, err = c.Allocate(slot.Spec{
		Name:  "eventFormat",
		Type:  slot.Uint8Array,
		Width: max(len(c.format), 1),
	})
	if err != nil {
		return c.ConfigErr("eventFormat", err)
	}

	c.msg, err = c.Allocate(slot.Spec{
		Name:  "eventMsg",
		Type:  slot.Uint8Array,
		Width: c.tmpl.Bound(c.Name()),
	})
	if err != nil {
		return c.ConfigErr("eventMsg", err)
	}

	return nil
}

// Step mirrors the inputs into the exported slots and, if the flag is set,
// renders and reports the message.
func (c *Comp) Step() {
	c.EnterStep()

	raised := c.flagIn.Bool()
	c.flag.SetBool(raised)

	for i, p := range c.dataIn {
		v := p.Float64()
		c.args[i] = v
		c.data.SetFloat64At(i, v)
	}

	if !raised {
		return
	}

	buf := c.msg.Bytes()
	n := c.tmpl.Render(buf, c.Name(), c.args[:c.arity])

	var step uint64
	if c.clock != nil {
		step = c.clock.CurrentStep()
	}

	rep := reporting.Report{
		Step:      step,
		SID:       c.Name(),
		EventID:   c.eventID,
		EventType: c.eventType,
		EventMask: c.eventMask,
		Message:   string(buf[:n]),
	}

	c.reporter.Report(rep)
	c.numReports++

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    blocks.HookPosEventReported,
		Step:   step,
		Item:   rep,
	})
}

// Params lists the run-time parameters.
func (c *Comp) Params() []blocks.Param {
	return []blocks.Param{
		{Name: "event_id", Type: "uint8", Value: c.eventID},
		{Name: "event_type", Type: "uint8", Value: c.eventType},
		{Name: "event_mask", Type: "uint32", Value: c.eventMask},
		{Name: "event_fmtstring", Type: "uint8[]", Value: c.format},
		{Name: "event_numdata", Type: "double", Value: float64(c.arity)},
	}
}
