// Package config loads quantum neural network models from YAML files.
//
// A model file declares the register, the input and weight parameters, a
// gate list with linear angle maps, the measured observables and how the
// network is evaluated and differentiated:
//
//	qubits: 1
//	inputs: [x]
//	weights: [w]
//	circuit:
//	  - {gate: ry, qubits: [0], angle: {terms: {x: 1, w: 1}}}
//	observables:
//	  - terms: [{pauli: Z, coeff: 1}]
//	expectation: pauli
//	gradient: {method: param_shift}
//	backend: {name: qasm, shots: 2048, seed: 7}
package config

import (
	"bytes"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidModel is returned for model files that cannot be built.
// The wrapped message names the offending field.
var ErrInvalidModel = errors.New("invalid model")

// Model is the parsed form of a model file.
type Model struct {
	Qubits         int          `yaml:"qubits"`
	Inputs         []string     `yaml:"inputs"`
	Weights        []string     `yaml:"weights"`
	InitialWeights []float64    `yaml:"initial_weights"`
	Circuit        []GateSpec   `yaml:"circuit"`
	Observables    []Observable `yaml:"observables"`
	Expectation    string       `yaml:"expectation"`
	Gradient       GradientSpec `yaml:"gradient"`
	Backend        BackendSpec  `yaml:"backend"`
	Training       *Training    `yaml:"training"`

	// Logger is handed to the execution context and the trainer.
	Logger *slog.Logger `yaml:"-"`
}

// GateSpec is one circuit instruction.
type GateSpec struct {
	Gate   string  `yaml:"gate"`
	Qubits []int   `yaml:"qubits"`
	Angle  *Linear `yaml:"angle"`
}

// Observable is a weighted sum of Pauli strings.
type Observable struct {
	Terms []PauliTerm `yaml:"terms"`

	// Coefficient optionally scales the expectation value by a linear
	// expression over the model's parameters.
	Coefficient *Linear `yaml:"coefficient"`
}

// PauliTerm is one Pauli string with a real coefficient (default: 1).
type PauliTerm struct {
	Pauli string   `yaml:"pauli"`
	Coeff *float64 `yaml:"coeff"`
}

// GradientSpec selects the differentiation method.
type GradientSpec struct {
	Method  string  `yaml:"method"`  // param_shift (default) or finite_diff
	Epsilon float64 `yaml:"epsilon"` // finite_diff step (default: 1e-6)
}

// BackendSpec selects the execution backend.
type BackendSpec struct {
	Name  string `yaml:"name"` // none (default), statevector or qasm
	Shots int    `yaml:"shots"`
	Seed  *int64 `yaml:"seed"`
}

// Linear is Σ terms[name]·name + constant.
//
// In YAML it is a mapping {terms: {x: 2}, constant: 0.5}, a parameter name
// (x) or a number (1.5708).
type Linear struct {
	Terms    map[string]float64 `yaml:"terms"`
	Constant float64            `yaml:"constant"`
}

// UnmarshalYAML accepts the scalar shorthands of Linear.
func (l *Linear) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if v, err := strconv.ParseFloat(value.Value, 64); err == nil {
			*l = Linear{Constant: v}
			return nil
		}
		*l = Linear{Terms: map[string]float64{value.Value: 1}}
		return nil
	}
	type plain Linear
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = Linear(p)
	return nil
}

// Load reads and parses a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading model")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return m, nil
}

// Parse decodes a model from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Model, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Model
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(ErrInvalidModel, err.Error())
	}
	return &m, nil
}
