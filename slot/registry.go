// Package slot owns the persistent storage that block instances expose to the
// external framework.
package slot

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sarchlab/ecibridge/naming"
)

// MaxSlotBytes bounds the storage a single slot may take.
const MaxSlotBytes = 1 << 20

var (
	// ErrAllocation is returned when storage for a slot cannot be reserved.
	ErrAllocation = errors.New("allocation error")

	// ErrNameCollision is returned when two live slots would share a name.
	ErrNameCollision = errors.New("name collision")

	// ErrDoublePublish is returned when a slot is published a second time.
	ErrDoublePublish = errors.New("double publish")

	// ErrReleased is returned when a released slot is used.
	ErrReleased = errors.New("slot released")

	// ErrUnknownAddress is returned for addresses that are not, or no longer,
	// published.
	ErrUnknownAddress = errors.New("unknown address")
)

// Registry owns every live slot of a model and the addresses published for
// them.
type Registry struct {
	mu sync.Mutex

	lastAddr uint64
	slots    map[string]*Slot
	byAddr   map[Address]*Slot
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		slots:  make(map[string]*Slot),
		byAddr: make(map[Address]*Slot),
	}
}

// Allocate reserves a slot for the owner. Nothing is registered when it fails.
func (r *Registry) Allocate(owner string, spec Spec) (*Slot, error) {
	err := specMustBeAllocatable(owner, spec)
	if err != nil {
		return nil, err
	}

	key := spec.Name
	if !spec.Exported {
		key = naming.BuildName(owner, spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.slots[key]; ok {
		return nil, fmt.Errorf(
			"slot: %w: %q requested by %s is already owned by %s",
			ErrNameCollision, key, owner, existing.owner)
	}

	s := &Slot{
		owner: owner,
		key:   key,
		spec:  spec,
		data:  make([]byte, spec.Width*spec.Type.ElemSize()),
	}
	r.slots[key] = s

	return s, nil
}

func specMustBeAllocatable(owner string, spec Spec) error {
	switch {
	case owner == "":
		return fmt.Errorf("slot: %w: slot %q has no owner",
			ErrAllocation, spec.Name)
	case spec.Name == "":
		return fmt.Errorf("slot: %w: slot of %s has no name",
			ErrAllocation, owner)
	case spec.Type.ElemSize() == 0:
		return fmt.Errorf("slot: %w: %q has unknown type %s",
			ErrAllocation, spec.Name, spec.Type)
	case spec.Width < 1:
		return fmt.Errorf("slot: %w: %q has width %d",
			ErrAllocation, spec.Name, spec.Width)
	case spec.Width > MaxSlotBytes/spec.Type.ElemSize():
		return fmt.Errorf("slot: %w: %q needs more than %d bytes",
			ErrAllocation, spec.Name, MaxSlotBytes)
	}

	return nil
}

// Publish issues the address of a slot. Each slot is published at most once.
func (r *Registry) Publish(s *Slot) (Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.released {
		return 0, fmt.Errorf("slot: %w: cannot publish %q", ErrReleased, s.key)
	}

	if s.published {
		return 0, fmt.Errorf("slot: %w: %q already published at %s",
			ErrDoublePublish, s.key, s.addr)
	}

	r.lastAddr++
	s.addr = Address(r.lastAddr)
	s.published = true
	r.byAddr[s.addr] = s

	return s.addr, nil
}

// Release invalidates the slot and its address. Releasing an unpublished slot
// is fine, and releasing a slot again does nothing.
func (r *Registry) Release(s *Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.released {
		return
	}

	if r.slots[s.key] == s {
		delete(r.slots, s.key)
	}

	if s.published {
		delete(r.byAddr, s.addr)
	}

	s.released = true
	s.data = nil
}

// Lookup describes the slot published at the address.
func (r *Registry) Lookup(addr Address) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotAt(addr)
	if err != nil {
		return Info{}, err
	}

	return s.Info(), nil
}

// Read returns a copy of the storage published at the address.
func (r *Registry) Read(addr Address) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotAt(addr)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(s.data))
	copy(data, s.data)

	return data, nil
}

// Write replaces the storage published at the address. The data must be
// exactly as long as the slot.
func (r *Registry) Write(addr Address, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slotAt(addr)
	if err != nil {
		return err
	}

	if len(data) != len(s.data) {
		return fmt.Errorf("slot: %q is %d bytes, got %d",
			s.key, len(s.data), len(data))
	}

	copy(s.data, data)

	return nil
}

func (r *Registry) slotAt(addr Address) (*Slot, error) {
	s, ok := r.byAddr[addr]
	if !ok {
		return nil, fmt.Errorf("slot: %w: %s", ErrUnknownAddress, addr)
	}

	return s, nil
}

// Find returns the live slot registered under the key.
func (r *Registry) Find(key string) (*Slot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[key]

	return s, ok
}

// Published lists the published slots in address order.
func (r *Registry) Published() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.byAddr))
	for _, s := range r.byAddr {
		infos = append(infos, s.Info())
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Address < infos[j].Address
	})

	return infos
}

// NumLive returns the number of allocated, unreleased slots.
func (r *Registry) NumLive() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.slots)
}
