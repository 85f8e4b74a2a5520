// Package config loads models, stimulus files and run settings.
//
// A model lists bus types and block placements. It can be written in YAML,
// TOML or HCL; the three forms decode to the same Model.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ecibridge/bustype"
)

var (
	// ErrUnknownFormat is returned for model files of an unknown extension.
	ErrUnknownFormat = errors.New("unknown model format")

	// ErrInvalidModel is returned when a model does not describe a usable
	// set of blocks.
	ErrInvalidModel = errors.New("invalid model")
)

// Model is the content of a model file.
type Model struct {
	Name   string      `yaml:"name" toml:"name" hcl:"name,optional"`
	Buses  []Bus       `yaml:"buses" toml:"buses" hcl:"bus,block"`
	Blocks []BlockSpec `yaml:"blocks" toml:"blocks" hcl:"block,block"`
}

// Bus declares a bus type by its fields.
type Bus struct {
	Name   string          `yaml:"name" toml:"name" hcl:"name,label"`
	Fields []bustype.Field `yaml:"fields" toml:"fields" hcl:"field,block"`
}

// BlockSpec places one block. Only the parameters of the block's kind may be
// set.
type BlockSpec struct {
	Kind string `yaml:"kind" toml:"kind" hcl:"kind,label"`
	Name string `yaml:"name" toml:"name" hcl:"name,label"`

	FdcID *int64 `yaml:"fdc_id,omitempty" toml:"fdc_id,omitempty" hcl:"fdc_id,optional"`

	EventID   *int64  `yaml:"event_id,omitempty" toml:"event_id,omitempty" hcl:"event_id,optional"`
	EventType *int64  `yaml:"event_type,omitempty" toml:"event_type,omitempty" hcl:"event_type,optional"`
	EventMask *int64  `yaml:"event_mask,omitempty" toml:"event_mask,omitempty" hcl:"event_mask,optional"`
	Format    *string `yaml:"format,omitempty" toml:"format,omitempty" hcl:"format,optional"`
	DataArity *int64  `yaml:"data_arity,omitempty" toml:"data_arity,omitempty" hcl:"data_arity,optional"`

	BusType *string `yaml:"bus_type,omitempty" toml:"bus_type,omitempty" hcl:"bus_type,optional"`
}

// LoadModel reads a model file. The format follows the file extension:
// .yaml or .yml, .toml, or .hcl.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading model: %w", err)
	}

	var m Model

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, &m)
	case ".toml":
		err = decodeTOML(data, &m)
	case ".hcl":
		err = decodeHCL(path, data, &m)
	default:
		err = fmt.Errorf("%w %q", ErrUnknownFormat, ext)
	}

	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	err = m.Validate()
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return &m, nil
}

// Unrecognized keys are rejected so that typos do not silently drop a
// parameter.
func decodeYAML(data []byte, m *Model) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(m)
	if err != nil {
		return fmt.Errorf("decode YAML: %w", err)
	}

	return nil
}

func decodeTOML(data []byte, m *Model) error {
	md, err := toml.Decode(string(data), m)
	if err != nil {
		return fmt.Errorf("decode TOML: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("decode TOML: unknown key %s", undecoded[0])
	}

	return nil
}

// HCL models may read the environment through the env object, as in
// fdc_id = env.FDC_ID.
func decodeHCL(path string, data []byte, m *Model) error {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return diags
	}

	diags = gohcl.DecodeBody(file.Body, envContext(), m)
	if diags.HasErrors() {
		return diags
	}

	return nil
}

func envContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, found := strings.Cut(kv, "=")
		if found && hclIdentifier(k) {
			vars[k] = cty.StringVal(v)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}

func hclIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
