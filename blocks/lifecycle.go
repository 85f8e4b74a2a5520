package blocks

import (
	"fmt"
	"log"
	"slices"
)

// State is a lifecycle state of a block.
type State int

// Every block moves through these states in order.
const (
	Unconfigured State = iota
	Configured
	Started
	Running
	Terminated
)

var stateNames = []string{
	"Unconfigured", "Configured", "Started", "Running", "Terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Lifecycle tracks the state of a block. Operations called in the wrong state
// are programming errors and panic.
type Lifecycle struct {
	state State
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// MustBeIn panics unless the current state is one of the given states.
func (l *Lifecycle) MustBeIn(op string, owner string, states ...State) {
	if slices.Contains(states, l.state) {
		return
	}

	log.Panicf("%s: cannot %s in state %s", owner, op, l.state)
}

func (l *Lifecycle) moveTo(s State) {
	l.state = s
}
