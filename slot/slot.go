package slot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// An Address is the opaque handle under which a published slot can be reached
// by the external framework. The zero Address is never issued.
type Address uint64

// String formats the address as a fixed-width hexadecimal number.
func (a Address) String() string {
	return fmt.Sprintf("0x%08x", uint64(a))
}

// MarshalText encodes the address the way String formats it.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an address written by MarshalText.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = v

	return nil
}

// ParseAddress parses an address produced by Address.String. A bare decimal
// number is accepted too.
func ParseAddress(s string) (Address, error) {
	base := 10
	digits := s

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}

	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("slot: %w: %q", ErrUnknownAddress, s)
	}

	return Address(v), nil
}

// Spec describes the slot a block asks for.
type Spec struct {
	Name     string
	Type     DataType
	Width    int
	Exported bool
}

// Info is the externally visible description of a slot.
type Info struct {
	Address  Address  `json:"address" yaml:"address"`
	Name     string   `json:"name" yaml:"name"`
	Owner    string   `json:"owner" yaml:"owner"`
	Type     DataType `json:"-" yaml:"-"`
	TypeName string   `json:"type" yaml:"type"`
	Width    int      `json:"width" yaml:"width"`
	Exported bool     `json:"exported" yaml:"exported"`
}

// A Slot is a named, typed, fixed-size piece of storage owned by one block
// instance. Its backing storage is allocated once and never moves, so the
// address published for it stays valid until the slot is released.
type Slot struct {
	owner string
	key   string
	spec  Spec
	data  []byte

	addr      Address
	published bool
	released  bool
}

// Name returns the storage name of the slot.
func (s *Slot) Name() string {
	return s.spec.Name
}

// Key returns the name the slot is registered under. Exported slots are keyed
// by their storage name; internal slots are qualified by their owner.
func (s *Slot) Key() string {
	return s.key
}

// Owner returns the name of the owning block instance.
func (s *Slot) Owner() string {
	return s.owner
}

// Type returns the element type.
func (s *Slot) Type() DataType {
	return s.spec.Type
}

// Width returns the element count.
func (s *Slot) Width() int {
	return s.spec.Width
}

// Exported tells if the slot is externally addressable.
func (s *Slot) Exported() bool {
	return s.spec.Exported
}

// Size returns the number of bytes of storage.
func (s *Slot) Size() int {
	return s.spec.Width * s.spec.Type.ElemSize()
}

// Address returns the published address. The second value is false if the
// slot has not been published or has been released.
func (s *Slot) Address() (Address, bool) {
	if !s.published || s.released {
		return 0, false
	}

	return s.addr, true
}

// Released tells if the slot has been released.
func (s *Slot) Released() bool {
	return s.released
}

// Info describes the slot.
func (s *Slot) Info() Info {
	return Info{
		Address:  s.addr,
		Name:     s.spec.Name,
		Owner:    s.owner,
		Type:     s.spec.Type,
		TypeName: s.spec.Type.String(),
		Width:    s.spec.Width,
		Exported: s.spec.Exported,
	}
}

// Bytes returns the backing storage itself. Writes through the returned slice
// change the slot.
func (s *Slot) Bytes() []byte {
	return s.data
}

// Bool returns the first element as a bool.
func (s *Slot) Bool() bool {
	return s.data[0] != 0
}

// SetBool sets the first element from a bool.
func (s *Slot) SetBool(v bool) {
	if v {
		s.data[0] = 1
	} else {
		s.data[0] = 0
	}
}

// Int32 returns the first element as an int32.
func (s *Slot) Int32() int32 {
	return int32(byteOrder.Uint32(s.data[0:4]))
}

// SetInt32 sets the first element from an int32.
func (s *Slot) SetInt32(v int32) {
	byteOrder.PutUint32(s.data[0:4], uint32(v))
}

// Float64At returns element i as a float64.
func (s *Slot) Float64At(i int) float64 {
	return math.Float64frombits(byteOrder.Uint64(s.data[i*8 : i*8+8]))
}

// SetFloat64At sets element i from a float64.
func (s *Slot) SetFloat64At(i int, v float64) {
	byteOrder.PutUint64(s.data[i*8:i*8+8], math.Float64bits(v))
}

// SetBytes copies src into the storage, truncating to the slot size, and zero
// fills what src does not cover. It returns the number of bytes copied.
func (s *Slot) SetBytes(src []byte) int {
	n := copy(s.data, src)
	clear(s.data[n:])

	return n
}
