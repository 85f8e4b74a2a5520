package blocks

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/sarchlab/ecibridge/slot"
)

// Direction tells if a port is read or written by its block.
type Direction int

// Port directions.
const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}

	return "out"
}

// A Port is a fixed-size signal buffer connected to a block. The buffer is
// allocated when the port is created and is never replaced.
type Port struct {
	name  string
	dir   Direction
	typ   slot.DataType
	width int
	buf   []byte
}

// NewPort creates a port holding width elements of type typ. Bus ports are
// uint8 arrays as wide as the bus.
func NewPort(name string, dir Direction, typ slot.DataType, width int) *Port {
	if typ.ElemSize() == 0 || width < 0 {
		panic(fmt.Sprintf("port %s: invalid type %s or width %d",
			name, typ, width))
	}

	return &Port{
		name:  name,
		dir:   dir,
		typ:   typ,
		width: width,
		buf:   make([]byte, width*typ.ElemSize()),
	}
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.name
}

// Direction returns the port direction.
func (p *Port) Direction() Direction {
	return p.dir
}

// Type returns the element type.
func (p *Port) Type() slot.DataType {
	return p.typ
}

// Width returns the number of elements.
func (p *Port) Width() int {
	return p.width
}

// Bytes returns the buffer itself.
func (p *Port) Bytes() []byte {
	return p.buf
}

// Bool reads the port as a boolean signal.
func (p *Port) Bool() bool {
	return p.buf[0] != 0
}

// SetBool drives the port with a boolean value.
func (p *Port) SetBool(v bool) {
	p.buf[0] = 0
	if v {
		p.buf[0] = 1
	}
}

// Float64 reads the port as a double signal.
func (p *Port) Float64() float64 {
	return math.Float64frombits(binary.NativeEndian.Uint64(p.buf))
}

// SetFloat64 drives the port with a double value.
func (p *Port) SetFloat64(v float64) {
	binary.NativeEndian.PutUint64(p.buf, math.Float64bits(v))
}

// SetBytes copies src into the buffer. The length must match the buffer.
func (p *Port) SetBytes(src []byte) error {
	if len(src) != len(p.buf) {
		return fmt.Errorf("blocks: port %s is %d bytes, got %d",
			p.name, len(p.buf), len(src))
	}

	copy(p.buf, src)

	return nil
}

// Set drives the port from a loosely typed value, as read from a stimulus
// file. Booleans accept bool and numbers, doubles accept numbers and bools,
// and bus ports accept a byte slice of the exact bus size.
func (p *Port) Set(v any) error {
	switch p.typ {
	case slot.Bool:
		b, ok := asBool(v)
		if !ok {
			return fmt.Errorf("blocks: port %s wants a bool, got %T", p.name, v)
		}

		p.SetBool(b)
	case slot.Float64:
		f, ok := asFloat(v)
		if !ok {
			return fmt.Errorf("blocks: port %s wants a number, got %T",
				p.name, v)
		}

		p.SetFloat64(f)
	default:
		data, ok := asBytes(v)
		if !ok {
			return fmt.Errorf("blocks: port %s wants bytes, got %T", p.name, v)
		}

		return p.SetBytes(data)
	}

	return nil
}

func asBool(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case float64:
		return v != 0, true
	}

	return false, false
}

func asFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	}

	return 0, false
}

// Strings are read as hex.
func asBytes(v any) ([]byte, bool) {
	switch v := v.(type) {
	case []byte:
		return v, true
	case string:
		data, err := hex.DecodeString(v)
		return data, err == nil
	}

	return nil, false
}

// PortLayout lists the ports of a block in index order.
type PortLayout struct {
	Inputs  []*Port
	Outputs []*Port
}

// Find returns the port with the name.
func (l PortLayout) Find(name string) (*Port, bool) {
	for _, p := range l.Inputs {
		if p.name == name {
			return p, true
		}
	}

	for _, p := range l.Outputs {
		if p.name == name {
			return p, true
		}
	}

	return nil, false
}
