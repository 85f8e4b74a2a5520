package simulation

import (
	"fmt"
	"strings"

	"github.com/sarchlab/ecibridge/blocks"
)

// StepInputs maps "<block>.<port>" to the value the port is driven with.
type StepInputs map[string]any

// A Stimulus lists the inputs to apply before each step. Entry i is applied
// before step i+1. Ports hold their value until they are driven again, so
// steps beyond the list keep the last inputs.
type Stimulus []StepInputs

// Validate checks that every key names an input port of the model.
func (st Stimulus) Validate(s *Simulation) error {
	for i, inputs := range st {
		for key := range inputs {
			_, err := s.findInput(key)
			if err != nil {
				return fmt.Errorf("simulation: stimulus step %d: %w", i+1, err)
			}
		}
	}

	return nil
}

func (st Stimulus) apply(s *Simulation, step uint64) error {
	if step == 0 || step > uint64(len(st)) {
		return nil
	}

	for key, v := range st[step-1] {
		p, err := s.findInput(key)
		if err != nil {
			return err
		}

		err = p.Set(v)
		if err != nil {
			return fmt.Errorf("simulation: stimulus step %d: %w", step, err)
		}
	}

	return nil
}

func (s *Simulation) findInput(key string) (*blocks.Port, error) {
	blockName, portName, found := strings.Cut(key, ".")
	if !found {
		return nil, fmt.Errorf("input %q is not of the form block.port", key)
	}

	b, found := s.GetBlockByName(blockName)
	if !found {
		return nil, fmt.Errorf("no block named %q", blockName)
	}

	for _, p := range b.Ports().Inputs {
		if p.Name() == portName {
			return p, nil
		}
	}

	return nil, fmt.Errorf("block %s has no input port %q", blockName, portName)
}
