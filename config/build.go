package config

import (
	"fmt"

	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/blocks/condmsg"
	"github.com/sarchlab/ecibridge/blocks/event"
	"github.com/sarchlab/ecibridge/blocks/fdc"
	"github.com/sarchlab/ecibridge/bustype"
	"github.com/sarchlab/ecibridge/simulation"
)

// Validate checks the structure of the model. Parameter values are checked
// later, when the blocks are configured.
func (m *Model) Validate() error {
	buses := make(map[string]bool)
	for _, b := range m.Buses {
		if b.Name == "" {
			return fmt.Errorf("%w: bus without a name", ErrInvalidModel)
		}

		if buses[b.Name] {
			return fmt.Errorf("%w: bus %s declared twice", ErrInvalidModel, b.Name)
		}

		buses[b.Name] = true
	}

	names := make(map[string]bool)
	for i, b := range m.Blocks {
		if b.Name == "" {
			return fmt.Errorf("%w: block %d has no name", ErrInvalidModel, i+1)
		}

		if names[b.Name] {
			return fmt.Errorf("%w: block %s placed twice",
				ErrInvalidModel, b.Name)
		}

		names[b.Name] = true

		err := b.paramsMustMatchKind()
		if err != nil {
			return err
		}
	}

	return nil
}

func (b BlockSpec) paramsMustMatchKind() error {
	kind, err := blocks.ParseKind(b.Kind)
	if err != nil {
		return fmt.Errorf("%w: block %s: %v", ErrInvalidModel, b.Name, err)
	}

	set := map[string]bool{
		"fdc_id":     b.FdcID != nil,
		"event_id":   b.EventID != nil,
		"event_type": b.EventType != nil,
		"event_mask": b.EventMask != nil,
		"format":     b.Format != nil,
		"data_arity": b.DataArity != nil,
		"bus_type":   b.BusType != nil,
	}

	allowed := map[blocks.Kind][]string{
		blocks.KindFdc: {"fdc_id"},
		blocks.KindEvent: {
			"event_id", "event_type", "event_mask", "format", "data_arity",
		},
		blocks.KindConditionalMsg: {"bus_type"},
	}

	for _, p := range allowed[kind] {
		delete(set, p)
	}

	for p, isSet := range set {
		if isSet {
			return fmt.Errorf("%w: block %s: %s does not apply to %s blocks",
				ErrInvalidModel, b.Name, p, kind)
		}
	}

	return nil
}

// BusTypes registers the declared buses in a registry that also knows the
// builtin scalars.
func (m *Model) BusTypes() (*bustype.Registry, error) {
	reg := bustype.NewRegistry()

	for _, b := range m.Buses {
		_, err := reg.RegisterLayout(b.Name, b.Fields)
		if err != nil {
			return nil, fmt.Errorf("config: bus %s: %w", b.Name, err)
		}
	}

	return reg, nil
}

// Block builds the placed block.
func (b BlockSpec) Block() (blocks.Block, error) {
	kind, err := blocks.ParseKind(b.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case blocks.KindFdc:
		builder := fdc.MakeBuilder()
		if b.FdcID != nil {
			builder = builder.WithFdcID(*b.FdcID)
		}

		return builder.Build(b.Name), nil
	case blocks.KindEvent:
		return b.eventBlock(), nil
	case blocks.KindConditionalMsg:
		builder := condmsg.MakeBuilder()
		if b.BusType != nil {
			builder = builder.WithBusType(*b.BusType)
		}

		return builder.Build(b.Name), nil
	}

	return nil, fmt.Errorf("config: block %s: unsupported kind %s",
		b.Name, kind)
}

func (b BlockSpec) eventBlock() *event.Comp {
	builder := event.MakeBuilder()

	if b.EventID != nil {
		builder = builder.WithEventID(*b.EventID)
	}

	if b.EventType != nil {
		builder = builder.WithEventType(*b.EventType)
	}

	if b.EventMask != nil {
		builder = builder.WithEventMask(*b.EventMask)
	}

	if b.Format != nil {
		builder = builder.WithFormat(*b.Format)
	}

	if b.DataArity != nil {
		builder = builder.WithDataArity(*b.DataArity)
	}

	return builder.Build(b.Name)
}

// Build creates a simulation holding the model's blocks in file order. The
// builder supplies everything but the bus types.
func (m *Model) Build(builder simulation.Builder) (*simulation.Simulation, error) {
	types, err := m.BusTypes()
	if err != nil {
		return nil, err
	}

	bs := make([]blocks.Block, 0, len(m.Blocks))
	for _, spec := range m.Blocks {
		b, err := spec.Block()
		if err != nil {
			return nil, err
		}

		bs = append(bs, b)
	}

	s := builder.WithBusTypes(types).Build()
	for _, b := range bs {
		s.AddBlock(b)
	}

	return s, nil
}
