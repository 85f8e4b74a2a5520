package slot

import (
	"encoding/binary"
	"fmt"
	"math"
)

// A DataType is the element type of a slot.
type DataType int

// The element types a slot can hold.
const (
	Bool DataType = iota + 1
	Int32
	Float64
	Uint8
	Uint8Array
)

var dataTypeNames = map[DataType]string{
	Bool:       "bool",
	Int32:      "int32",
	Float64:    "float64",
	Uint8:      "uint8",
	Uint8Array: "uint8[]",
}

func (t DataType) String() string {
	name, ok := dataTypeNames[t]
	if !ok {
		return fmt.Sprintf("DataType(%d)", int(t))
	}

	return name
}

// ElemSize returns the number of bytes one element of the type occupies, or 0
// for an unknown type.
func (t DataType) ElemSize() int {
	switch t {
	case Bool, Uint8, Uint8Array:
		return 1
	case Int32:
		return 4
	case Float64:
		return 8
	}

	return 0
}

// ParseDataType converts a type name such as "float64" into a DataType.
func ParseDataType(s string) (DataType, error) {
	for t, name := range dataTypeNames {
		if name == s {
			return t, nil
		}
	}

	return 0, fmt.Errorf("slot: unknown data type %q", s)
}

// byteOrder is the order the target reads the exported storage in.
var byteOrder = binary.NativeEndian

// Decode interprets raw slot bytes as a slice of typed values. Trailing bytes
// that do not form a whole element are ignored.
func Decode(t DataType, data []byte) []any {
	size := t.ElemSize()
	if size == 0 {
		return nil
	}

	n := len(data) / size
	values := make([]any, 0, n)

	for i := 0; i < n; i++ {
		elem := data[i*size : (i+1)*size]

		switch t {
		case Bool:
			values = append(values, elem[0] != 0)
		case Uint8, Uint8Array:
			values = append(values, elem[0])
		case Int32:
			values = append(values, int32(byteOrder.Uint32(elem)))
		case Float64:
			values = append(values, math.Float64frombits(byteOrder.Uint64(elem)))
		}
	}

	return values
}
