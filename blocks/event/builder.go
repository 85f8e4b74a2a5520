package event

import (
	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/reporting"
)

// Builder can build event blocks. Parameter ranges are checked when the
// block is configured, not when it is built.
type Builder struct {
	eventID   int64
	eventType int64
	eventMask int64
	format    string
	arity     int64
	reporter  reporting.Reporter
}

// MakeBuilder creates a builder with the template "%s" and no data inputs.
func MakeBuilder() Builder {
	return Builder{
		format: "%s",
	}
}

// WithEventID sets the event ID.
func (b Builder) WithEventID(id int64) Builder {
	b.eventID = id
	return b
}

// WithEventType sets the event type.
func (b Builder) WithEventType(t int64) Builder {
	b.eventType = t
	return b
}

// WithEventMask sets the event mask.
func (b Builder) WithEventMask(mask int64) Builder {
	b.eventMask = mask
	return b
}

// WithFormat sets the message template.
func (b Builder) WithFormat(format string) Builder {
	b.format = format
	return b
}

// WithDataArity sets the number of data inputs.
func (b Builder) WithDataArity(n int64) Builder {
	b.arity = n
	return b
}

// WithReporter sets the reporter. Without it, the block reports to the
// reporter of the simulation it is started in.
func (b Builder) WithReporter(r reporting.Reporter) Builder {
	b.reporter = r
	return b
}

// Build creates a block whose instance identifier is sid.
func (b Builder) Build(sid string) *Comp {
	return &Comp{
		Base:         blocks.NewBase(sid, blocks.KindEvent),
		rawEventID:   b.eventID,
		rawEventType: b.eventType,
		rawEventMask: b.eventMask,
		rawArity:     b.arity,
		format:       b.format,
		reporter:     b.reporter,
	}
}
