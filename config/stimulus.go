package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ecibridge/simulation"
)

// LoadStimulus reads a YAML stimulus file: a list with one mapping per step,
// each mapping "<block>.<port>" to the value driven before that step.
//
//	- F1.flag: true
//	  E1.data1: 2.5
//	- F1.flag: false
func LoadStimulus(path string) (simulation.Stimulus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading stimulus: %w", err)
	}

	var steps []map[string]any

	decoder := yaml.NewDecoder(bytes.NewReader(data))

	err = decoder.Decode(&steps)
	if err != nil {
		return nil, fmt.Errorf("config: %s: decode YAML: %w", path, err)
	}

	stim := make(simulation.Stimulus, 0, len(steps))
	for _, s := range steps {
		stim = append(stim, simulation.StepInputs(s))
	}

	return stim, nil
}
