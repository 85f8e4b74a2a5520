package blocks

import (
	"github.com/sarchlab/ecibridge/hooking"
	"github.com/sarchlab/ecibridge/naming"
	"github.com/sarchlab/ecibridge/slot"
)

// HookPosStateChange marks a lifecycle transition. The hook detail is the new
// State.
var HookPosStateChange = &hooking.HookPos{Name: "Block State Change"}

// HookPosEventReported marks an event report issued by a block. The hook item
// is the report.
var HookPosEventReported = &hooking.HookPos{Name: "Event Reported"}

// Base implements the bookkeeping every block shares: naming, hooks, the
// lifecycle, and the slots the block allocated.
type Base struct {
	naming.NamedBase
	hooking.HookableBase
	Lifecycle

	kind  Kind
	ports PortLayout

	reg   *slot.Registry
	slots []*slot.Slot
}

// NewBase creates a Base for a block instance.
func NewBase(name string, kind Kind) *Base {
	return &Base{
		NamedBase: naming.MakeNamedBase(name),
		kind:      kind,
	}
}

// Kind returns the block kind.
func (b *Base) Kind() Kind {
	return b.kind
}

// Ports returns the current port layout.
func (b *Base) Ports() PortLayout {
	return b.ports
}

// SetPorts replaces the port layout.
func (b *Base) SetPorts(l PortLayout) {
	b.ports = l
}

// Slots returns the slots the block currently holds.
func (b *Base) Slots() []*slot.Slot {
	return b.slots
}

// ConfigErr wraps err as a ConfigError of this block.
func (b *Base) ConfigErr(field string, err error) error {
	return &ConfigError{
		Block: b.Name(),
		Kind:  b.kind,
		Field: field,
		Err:   err,
	}
}

// CheckInstanceID verifies that the block name can be used to derive storage
// names.
func (b *Base) CheckInstanceID() error {
	err := naming.IdentifierMustBeValid(b.Name())
	if err != nil {
		return b.ConfigErr("instanceId", err)
	}

	return nil
}

// MarkConfigured moves the block from Unconfigured to Configured.
func (b *Base) MarkConfigured() {
	b.MustBeIn("configure", b.Name(), Unconfigured)
	b.transit(Configured)
}

// BeginStart checks that the block may start and binds it to the registry
// that will own its slots.
func (b *Base) BeginStart(reg *slot.Registry) {
	b.MustBeIn("start", b.Name(), Configured)
	b.reg = reg
}

// Allocate reserves a slot owned by the block.
func (b *Base) Allocate(spec slot.Spec) (*slot.Slot, error) {
	s, err := b.reg.Allocate(b.Name(), spec)
	if err != nil {
		return nil, err
	}

	b.slots = append(b.slots, s)

	return s, nil
}

// PublishExported publishes every exported slot the block holds.
func (b *Base) PublishExported() error {
	for _, s := range b.slots {
		if !s.Exported() {
			continue
		}

		_, err := b.reg.Publish(s)
		if err != nil {
			return err
		}
	}

	return nil
}

// Publish publishes one slot of the block, exported or not.
func (b *Base) Publish(s *slot.Slot) (slot.Address, error) {
	return b.reg.Publish(s)
}

// MarkStarted moves the block from Configured to Started.
func (b *Base) MarkStarted() {
	b.transit(Started)
}

// EnterStep checks that the block may step. The first step moves the block
// to Running.
func (b *Base) EnterStep() {
	b.MustBeIn("step", b.Name(), Started, Running)

	if b.State() == Started {
		b.transit(Running)
	}
}

// Terminate releases every slot the block holds. It may be called from any
// state and only acts once.
func (b *Base) Terminate() {
	if b.State() == Terminated {
		return
	}

	for _, s := range b.slots {
		b.reg.Release(s)
	}

	b.slots = nil
	b.transit(Terminated)
}

func (b *Base) transit(s State) {
	b.moveTo(s)
	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    HookPosStateChange,
		Detail: s,
	})
}
