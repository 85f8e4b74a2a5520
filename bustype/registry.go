// Package bustype resolves the byte size of structured message (bus) types.
//
// Sizes follow the natural alignment rules of the C structs the code
// generator emits for buses, so a bus declared field by field has the same
// size here as on the target.
package bustype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ErrUnknownBusType is returned when a bus type name cannot be resolved.
var ErrUnknownBusType = errors.New("unknown bus type")

// A Resolver looks up the size of a bus type.
type Resolver interface {
	ResolveSize(busName string) (int, error)
}

// Info describes a registered type.
type Info struct {
	Name  string
	Size  int
	Align int
}

// A Field is one element of a bus layout. Type names either a scalar type
// or a bus registered earlier. A Dim of zero means a single element.
type Field struct {
	Name string `yaml:"name" toml:"name" hcl:"name,label"`
	Type string `yaml:"type" toml:"type" hcl:"type"`
	Dim  int    `yaml:"dim,omitempty" toml:"dim,omitempty" hcl:"dim,optional"`
}

// Registry holds the bus types known to a simulation.
type Registry struct {
	lock sync.RWMutex

	types map[string]Info
}

func scalar(name string, size int) Info {
	return Info{Name: name, Size: size, Align: size}
}

// NewRegistry creates a Registry that knows the scalar element types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]Info)}

	for _, t := range []Info{
		scalar("boolean", 1),
		scalar("bool", 1),
		scalar("int8", 1),
		scalar("uint8", 1),
		scalar("int16", 2),
		scalar("uint16", 2),
		scalar("int32", 4),
		scalar("uint32", 4),
		scalar("single", 4),
		scalar("float32", 4),
		scalar("int64", 8),
		scalar("uint64", 8),
		scalar("double", 8),
		scalar("float64", 8),
	} {
		r.types[t.Name] = t
	}

	return r
}

// Register adds a bus of a known size.
func (r *Registry) Register(name string, size int) (Info, error) {
	if size < 0 {
		return Info{}, fmt.Errorf("bustype: bus %q has negative size %d",
			name, size)
	}

	info := Info{Name: name, Size: size, Align: alignOfSize(size)}

	return info, r.add(info)
}

// RegisterLayout adds a bus whose size is computed from its fields.
func (r *Registry) RegisterLayout(name string, fields []Field) (Info, error) {
	r.lock.RLock()
	info, err := r.layout(name, fields)
	r.lock.RUnlock()

	if err != nil {
		return Info{}, err
	}

	return info, r.add(info)
}

func (r *Registry) layout(name string, fields []Field) (Info, error) {
	offset := 0
	maxAlign := 1

	for _, f := range fields {
		elem, ok := r.types[f.Type]
		if !ok {
			return Info{}, fmt.Errorf(
				"bustype: %w: field %s.%s has type %q",
				ErrUnknownBusType, name, f.Name, f.Type)
		}

		if f.Dim < 0 {
			return Info{}, fmt.Errorf(
				"bustype: field %s.%s has negative dimension %d",
				name, f.Name, f.Dim)
		}

		dim := f.Dim
		if dim == 0 {
			dim = 1
		}

		offset = alignUp(offset, elem.Align)
		offset += elem.Size * dim
		maxAlign = max(maxAlign, elem.Align)
	}

	return Info{
		Name:  name,
		Size:  alignUp(offset, maxAlign),
		Align: maxAlign,
	}, nil
}

// RegisterStruct adds a bus whose layout is the one of a fixed-size Go value.
func (r *Registry) RegisterStruct(name string, example any) (Info, error) {
	if binary.Size(example) < 0 {
		return Info{}, fmt.Errorf(
			"bustype: bus %q: %T does not have a fixed size", name, example)
	}

	t := reflect.TypeOf(example)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info := Info{Name: name, Size: int(t.Size()), Align: t.Align()}

	return info, r.add(info)
}

func (r *Registry) add(info Info) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.types[info.Name]; ok {
		return fmt.Errorf("bustype: type %s already registered", info.Name)
	}

	r.types[info.Name] = info

	return nil
}

// ResolveSize returns the size in bytes of the named type.
func (r *Registry) ResolveSize(busName string) (int, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	info, ok := r.types[busName]
	if !ok {
		return 0, fmt.Errorf("bustype: %w: %q", ErrUnknownBusType, busName)
	}

	return info.Size, nil
}

// Names lists the registered type names in order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()

	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}

	return (n + align - 1) / align * align
}

func alignOfSize(size int) int {
	align := 1
	for align < 8 && size%(align*2) == 0 && size >= align*2 {
		align *= 2
	}

	return align
}
