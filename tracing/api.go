// Package tracing observes a running model through its hooks: it logs
// lifecycle transitions and steps, times steps, and samples exported flags
// into a recording.
package tracing

import (
	"github.com/sarchlab/ecibridge/blocks"
	"github.com/sarchlab/ecibridge/hooking"
)

// A Model is something that runs blocks and accepts step hooks.
type Model interface {
	hooking.Hookable
	Blocks() []blocks.Block
}

// CollectTrace attaches the hook to the model and to each of its blocks.
// Attaching the same tracer twice panics.
func CollectTrace(m Model, h hooking.Hook) {
	m.AcceptHook(h)

	for _, b := range m.Blocks() {
		b.AcceptHook(h)
	}
}
