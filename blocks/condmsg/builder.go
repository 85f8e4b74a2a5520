package condmsg

import "github.com/sarchlab/ecibridge/blocks"

// Builder can build conditional message blocks.
type Builder struct {
	busType string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithBusType sets the name of the bus type the block forwards. The name is
// resolved when the simulation starts.
func (b Builder) WithBusType(name string) Builder {
	b.busType = name
	return b
}

// Build creates a block whose instance identifier is sid.
func (b Builder) Build(sid string) *Comp {
	return &Comp{
		Base:    blocks.NewBase(sid, blocks.KindConditionalMsg),
		busType: b.busType,
	}
}
