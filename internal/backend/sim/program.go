// Package sim implements the in-process statevector simulators.
//
// Circuits are compiled into programs whose constant gates are turned into
// unitaries once; parametrized gates are bound on every Run. Programs are
// what the circuit sampler caches between batches.
package sim

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/qnn/internal/circuit"
)

// ErrUnbound is returned when a circuit still references parameters at run time.
var ErrUnbound = errors.New("circuit has unbound parameters")

// maxQubits bounds the statevector size (2^24 amplitudes, 256 MiB).
const maxQubits = 24

type instruction struct {
	gate  circuit.Gate
	fixed *mat.CDense // Precomputed unitary; nil when the angle is symbolic.
}

// Program is a compiled circuit.
//
// A Program is immutable after Compile and safe for concurrent Run calls.
type Program struct {
	numQubits    int
	instructions []instruction
	params       []*circuit.Parameter
}

// Compile precomputes the unitaries of every gate whose angle is bound.
func Compile(c *circuit.Circuit) (*Program, error) {
	if c.NumQubits() > maxQubits {
		return nil, errors.Errorf("sim: %d qubits exceeds the simulator limit of %d", c.NumQubits(), maxQubits)
	}
	p := &Program{
		numQubits:    c.NumQubits(),
		instructions: make([]instruction, len(c.Gates())),
		params:       c.Parameters(),
	}
	for i, g := range c.Gates() {
		p.instructions[i].gate = g
		if theta, ok := g.Angle.Value(); ok {
			p.instructions[i].fixed = unitary(g.Kind, theta)
		}
	}
	return p, nil
}

// NumQubits returns the register width.
func (p *Program) NumQubits() int {
	return p.numQubits
}

// Parameters returns the parameters the program must be bound with.
func (p *Program) Parameters() []*circuit.Parameter {
	return p.params
}

// Run binds values and returns the final statevector, starting from |0…0⟩.
func (p *Program) Run(values circuit.Values) ([]complex128, error) {
	state := make([]complex128, 1<<p.numQubits)
	state[0] = 1
	for i, ins := range p.instructions {
		u := ins.fixed
		if u == nil {
			theta, ok := ins.gate.Angle.Bind(values).Value()
			if !ok {
				return nil, errors.Wrapf(ErrUnbound, "gate %d (%s)", i, ins.gate)
			}
			u = unitary(ins.gate.Kind, theta)
		}
		switch ins.gate.Kind {
		case circuit.CX, circuit.CZ:
			applyControlled(state, u, ins.gate.Qubits[0], ins.gate.Qubits[1])
		default:
			apply1(state, u, ins.gate.Qubits[0])
		}
	}
	return state, nil
}

// Simulate runs a bound circuit and returns its statevector.
func Simulate(c *circuit.Circuit) ([]complex128, error) {
	p, err := Compile(c)
	if err != nil {
		return nil, err
	}
	return p.Run(nil)
}
