package fdc

import "github.com/sarchlab/ecibridge/blocks"

// Builder can build fault detection flag blocks.
type Builder struct {
	fdcID int64
}

// MakeBuilder creates a builder with fdcId 0.
func MakeBuilder() Builder {
	return Builder{}
}

// WithFdcID sets the fault detection ID. The range is checked when the block
// is configured.
func (b Builder) WithFdcID(id int64) Builder {
	b.fdcID = id
	return b
}

// Build creates a block whose instance identifier is sid.
func (b Builder) Build(sid string) *Comp {
	return &Comp{
		Base:     blocks.NewBase(sid, blocks.KindFdc),
		rawFdcID: b.fdcID,
	}
}
