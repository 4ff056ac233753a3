package circuit

import "fmt"

// GateKind identifies a gate type.
type GateKind int

// Supported gates.
const (
	H GateKind = iota
	X
	Y
	Z
	S
	Sdg
	RX
	RY
	RZ
	P
	CX
	CZ
)

// String returns the OpenQASM-style gate name.
func (k GateKind) String() string {
	switch k {
	case H:
		return "h"
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	case S:
		return "s"
	case Sdg:
		return "sdg"
	case RX:
		return "rx"
	case RY:
		return "ry"
	case RZ:
		return "rz"
	case P:
		return "p"
	case CX:
		return "cx"
	case CZ:
		return "cz"
	default:
		return fmt.Sprintf("gate(%d)", int(k))
	}
}

// ParseGateKind maps an OpenQASM-style name back to a GateKind.
func ParseGateKind(name string) (GateKind, bool) {
	for k := H; k <= CZ; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// NumQubits returns the gate's arity.
func (k GateKind) NumQubits() int {
	if k == CX || k == CZ {
		return 2
	}
	return 1
}

// Parametrized reports whether the gate takes an angle.
func (k GateKind) Parametrized() bool {
	switch k {
	case RX, RY, RZ, P:
		return true
	default:
		return false
	}
}

// Gate is one instruction of a circuit.
//
// For CX and CZ, Qubits is (control, target).
type Gate struct {
	Kind   GateKind
	Qubits []int
	Angle  Expression
}

// String implements fmt.Stringer.
func (g Gate) String() string {
	if g.Kind.Parametrized() {
		return fmt.Sprintf("%s(%s) %v", g.Kind, g.Angle, g.Qubits)
	}
	return fmt.Sprintf("%s %v", g.Kind, g.Qubits)
}
