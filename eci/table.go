// Package eci builds the tables through which the flight software finds the
// exported state of every block: one table for fault flags, one for events
// and one for conditional messages.
package eci

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/blocks/condmsg"
	"github.com/sarchlab/ecibridge/blocks/event"
	"github.com/sarchlab/ecibridge/blocks/fdc"
	"github.com/sarchlab/ecibridge/slot"
)

// FlagEntry locates the flag of a fault detection block.
type FlagEntry struct {
	FlagID     uint8        `json:"flag_id" yaml:"flag_id"`
	StatusFlag slot.Address `json:"status_flag" yaml:"status_flag"`
	SID        string       `json:"sid" yaml:"sid"`
}

// ElementRef points at one element of an array slot.
type ElementRef struct {
	Address slot.Address `json:"address" yaml:"address"`
	Index   int          `json:"index" yaml:"index"`
}

// EventEntry locates the state of an event block.
type EventEntry struct {
	EventBlock uint8        `json:"event_block" yaml:"event_block"`
	EventID    uint8        `json:"event_id" yaml:"event_id"`
	EventType  uint8        `json:"event_type" yaml:"event_type"`
	EventMask  uint32       `json:"event_mask" yaml:"event_mask"`
	EventFlag  slot.Address `json:"event_flag" yaml:"event_flag"`
	EventMsg   slot.Address `json:"event_msg" yaml:"event_msg"`
	Loc        string       `json:"loc" yaml:"loc"`
	Data       []ElementRef `json:"data,omitempty" yaml:"data,omitempty"`
}

// MsgEntry locates the send flag of a conditional message block.
type MsgEntry struct {
	BusName string       `json:"bus_name" yaml:"bus_name"`
	Size    int          `json:"size" yaml:"size"`
	SendMsg slot.Address `json:"send_msg" yaml:"send_msg"`
	SID     string       `json:"sid" yaml:"sid"`
}

// Table is the full set of lookup tables of a started model.
type Table struct {
	Flags  []FlagEntry  `json:"flags" yaml:"flags"`
	Events []EventEntry `json:"events" yaml:"events"`
	Msgs   []MsgEntry   `json:"msgs" yaml:"msgs"`
}

// Build collects the addresses of started blocks, in block order. It only
// reads addresses; every slot it refers to is published at Start.
func Build(bs []blocks.Block) (*Table, error) {
	t := &Table{
		Flags:  []FlagEntry{},
		Events: []EventEntry{},
		Msgs:   []MsgEntry{},
	}

	for _, b := range bs {
		if b.State() != blocks.Started && b.State() != blocks.Running {
			return nil, fmt.Errorf("eci: block %s is %s, not started",
				b.Name(), b.State())
		}

		var err error

		switch b := b.(type) {
		case *fdc.Comp:
			err = t.addFlag(b)
		case *event.Comp:
			err = t.addEvent(b)
		case *condmsg.Comp:
			err = t.addMsg(b)
		default:
			err = fmt.Errorf("eci: block %s has unsupported type %T",
				b.Name(), b)
		}

		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func addressOf(s *slot.Slot) (slot.Address, error) {
	addr, ok := s.Address()
	if !ok {
		return 0, fmt.Errorf("eci: %w: %s is not published",
			slot.ErrUnknownAddress, s.Key())
	}

	return addr, nil
}

func (t *Table) addFlag(c *fdc.Comp) error {
	addr, err := addressOf(c.Flag())
	if err != nil {
		return err
	}

	t.Flags = append(t.Flags, FlagEntry{
		FlagID:     c.FdcID(),
		StatusFlag: addr,
		SID:        c.Name(),
	})

	return nil
}

func (t *Table) addEvent(c *event.Comp) error {
	flagAddr, err := addressOf(c.FlagSlot())
	if err != nil {
		return err
	}

	msgAddr, err := addressOf(c.MsgSlot())
	if err != nil {
		return err
	}

	entry := EventEntry{
		EventBlock: uint8(c.Arity()),
		EventID:    c.EventID(),
		EventType:  c.EventType(),
		EventMask:  c.EventMask(),
		EventFlag:  flagAddr,
		EventMsg:   msgAddr,
		Loc:        c.Name(),
	}

	if c.DataSlot() != nil {
		dataAddr, err := addressOf(c.DataSlot())
		if err != nil {
			return err
		}

		for i := 0; i < c.Arity(); i++ {
			entry.Data = append(entry.Data,
				ElementRef{Address: dataAddr, Index: i})
		}
	}

	t.Events = append(t.Events, entry)

	return nil
}

func (t *Table) addMsg(c *condmsg.Comp) error {
	addr, err := addressOf(c.FlagSlot())
	if err != nil {
		return err
	}

	t.Msgs = append(t.Msgs, MsgEntry{
		BusName: c.BusType(),
		Size:    c.Size(),
		SendMsg: addr,
		SID:     c.Name(),
	})

	return nil
}

// WriteYAML encodes the table as YAML.
func (t *Table) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(t)
	if err != nil {
		return fmt.Errorf("eci: %w", err)
	}

	return enc.Close()
}

// WriteJSON encodes the table as indented JSON.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(t)
	if err != nil {
		return fmt.Errorf("eci: %w", err)
	}

	return nil
}
