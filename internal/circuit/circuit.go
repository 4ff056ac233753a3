package circuit

import (
	"fmt"
	"strings"
)

// Circuit is an ordered list of gates on a fixed register.
//
// Builder methods append in place and return the circuit for chaining.
// They panic on out-of-range qubits, which is a programming error.
// Bind, ShiftGate and ShiftParam return new circuits.
//
// Example:
//
//	x := circuit.NewParameter("x")
//	c := circuit.New(1).H(0).RY(circuit.Param(x), 0)
type Circuit struct {
	numQubits int
	gates     []Gate
}

// New creates an empty circuit on n qubits.
func New(n int) *Circuit {
	if n <= 0 {
		panic(fmt.Sprintf("circuit.New: need at least one qubit, got %d", n))
	}
	return &Circuit{numQubits: n}
}

// NumQubits returns the register width.
func (c *Circuit) NumQubits() int {
	return c.numQubits
}

// Gates returns the instruction list.
func (c *Circuit) Gates() []Gate {
	return c.gates
}

// Append adds a gate after validating its qubits.
func (c *Circuit) Append(g Gate) *Circuit {
	if len(g.Qubits) != g.Kind.NumQubits() {
		panic(fmt.Sprintf("circuit: %s expects %d qubits, got %v", g.Kind, g.Kind.NumQubits(), g.Qubits))
	}
	for _, q := range g.Qubits {
		if q < 0 || q >= c.numQubits {
			panic(fmt.Sprintf("circuit: qubit %d out of range for %d-qubit register", q, c.numQubits))
		}
	}
	if len(g.Qubits) == 2 && g.Qubits[0] == g.Qubits[1] {
		panic(fmt.Sprintf("circuit: %s control and target are both qubit %d", g.Kind, g.Qubits[0]))
	}
	c.gates = append(c.gates, Gate{Kind: g.Kind, Qubits: append([]int(nil), g.Qubits...), Angle: g.Angle})
	return c
}

// H appends a Hadamard gate.
func (c *Circuit) H(q int) *Circuit { return c.Append(Gate{Kind: H, Qubits: []int{q}}) }

// X appends a Pauli-X gate.
func (c *Circuit) X(q int) *Circuit { return c.Append(Gate{Kind: X, Qubits: []int{q}}) }

// Y appends a Pauli-Y gate.
func (c *Circuit) Y(q int) *Circuit { return c.Append(Gate{Kind: Y, Qubits: []int{q}}) }

// Z appends a Pauli-Z gate.
func (c *Circuit) Z(q int) *Circuit { return c.Append(Gate{Kind: Z, Qubits: []int{q}}) }

// S appends a phase gate S = diag(1, i).
func (c *Circuit) S(q int) *Circuit { return c.Append(Gate{Kind: S, Qubits: []int{q}}) }

// Sdg appends S†.
func (c *Circuit) Sdg(q int) *Circuit { return c.Append(Gate{Kind: Sdg, Qubits: []int{q}}) }

// RX appends exp(-iθX/2).
func (c *Circuit) RX(theta Expression, q int) *Circuit {
	return c.Append(Gate{Kind: RX, Qubits: []int{q}, Angle: theta})
}

// RY appends exp(-iθY/2).
func (c *Circuit) RY(theta Expression, q int) *Circuit {
	return c.Append(Gate{Kind: RY, Qubits: []int{q}, Angle: theta})
}

// RZ appends exp(-iθZ/2).
func (c *Circuit) RZ(theta Expression, q int) *Circuit {
	return c.Append(Gate{Kind: RZ, Qubits: []int{q}, Angle: theta})
}

// P appends the phase gate diag(1, e^{iθ}).
func (c *Circuit) P(theta Expression, q int) *Circuit {
	return c.Append(Gate{Kind: P, Qubits: []int{q}, Angle: theta})
}

// CX appends a controlled-X.
func (c *Circuit) CX(control, target int) *Circuit {
	return c.Append(Gate{Kind: CX, Qubits: []int{control, target}})
}

// CZ appends a controlled-Z.
func (c *Circuit) CZ(control, target int) *Circuit {
	return c.Append(Gate{Kind: CZ, Qubits: []int{control, target}})
}

// Copy returns an independent copy of c.
func (c *Circuit) Copy() *Circuit {
	out := &Circuit{numQubits: c.numQubits, gates: make([]Gate, len(c.gates))}
	for i, g := range c.gates {
		out.gates[i] = Gate{Kind: g.Kind, Qubits: append([]int(nil), g.Qubits...), Angle: g.Angle}
	}
	return out
}

// Compose returns c followed by other. Both must have the same width.
func (c *Circuit) Compose(other *Circuit) *Circuit {
	if other.numQubits != c.numQubits {
		panic(fmt.Sprintf("circuit: cannot compose %d-qubit and %d-qubit circuits", c.numQubits, other.numQubits))
	}
	out := c.Copy()
	for _, g := range other.gates {
		out.Append(g)
	}
	return out
}

// Bind returns a copy with every bound parameter substituted.
func (c *Circuit) Bind(values Values) *Circuit {
	out := c.Copy()
	for i := range out.gates {
		if out.gates[i].Kind.Parametrized() {
			out.gates[i].Angle = out.gates[i].Angle.Bind(values)
		}
	}
	return out
}

// IsBound reports whether no gate references a parameter.
func (c *Circuit) IsBound() bool {
	for _, g := range c.gates {
		if !g.Angle.IsBound() {
			return false
		}
	}
	return true
}

// Parameters returns the referenced parameters in creation order.
func (c *Circuit) Parameters() []*Parameter {
	seen := make(map[*Parameter]struct{})
	var ps []*Parameter
	for _, g := range c.gates {
		for _, p := range g.Angle.Parameters() {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				ps = append(ps, p)
			}
		}
	}
	SortParameters(ps)
	return ps
}

// ShiftGate returns a copy with delta added to the angle of gate i.
func (c *Circuit) ShiftGate(i int, delta float64) *Circuit {
	if !c.gates[i].Kind.Parametrized() {
		panic(fmt.Sprintf("circuit: gate %d (%s) has no angle", i, c.gates[i].Kind))
	}
	out := c.Copy()
	out.gates[i].Angle = out.gates[i].Angle.Shift(delta)
	return out
}

// ShiftParam returns a copy with p replaced by p+delta in every gate.
func (c *Circuit) ShiftParam(p *Parameter, delta float64) *Circuit {
	out := c.Copy()
	for i := range out.gates {
		out.gates[i].Angle = out.gates[i].Angle.ShiftParam(p, delta)
	}
	return out
}

// String renders one gate per line.
func (c *Circuit) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "circuit(%d qubits)", c.numQubits)
	for _, g := range c.gates {
		b.WriteString("\n  ")
		b.WriteString(g.String())
	}
	return b.String()
}
