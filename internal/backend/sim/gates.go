package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/qnn/internal/circuit"
)

// unitary returns the 2×2 matrix of a single-qubit gate, or of the target
// action of a controlled gate.
func unitary(kind circuit.GateKind, theta float64) *mat.CDense {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	var data []complex128
	switch kind {
	case circuit.H:
		r := complex(1/math.Sqrt2, 0)
		data = []complex128{r, r, r, -r}
	case circuit.X, circuit.CX:
		data = []complex128{0, 1, 1, 0}
	case circuit.Y:
		data = []complex128{0, -1i, 1i, 0}
	case circuit.Z, circuit.CZ:
		data = []complex128{1, 0, 0, -1}
	case circuit.S:
		data = []complex128{1, 0, 0, 1i}
	case circuit.Sdg:
		data = []complex128{1, 0, 0, -1i}
	case circuit.RX:
		data = []complex128{c, -1i * s, -1i * s, c}
	case circuit.RY:
		data = []complex128{c, -s, s, c}
	case circuit.RZ:
		data = []complex128{cmplx.Exp(complex(0, -theta/2)), 0, 0, cmplx.Exp(complex(0, theta/2))}
	case circuit.P:
		data = []complex128{1, 0, 0, cmplx.Exp(complex(0, theta))}
	default:
		panic(fmt.Sprintf("sim: no unitary for %s", kind))
	}
	return mat.NewCDense(2, 2, data)
}

// apply1 applies u to qubit q.
func apply1(state []complex128, u *mat.CDense, q int) {
	u00, u01, u10, u11 := u.At(0, 0), u.At(0, 1), u.At(1, 0), u.At(1, 1)
	bit := 1 << q
	for i := range state {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a0, a1 := state[i], state[j]
		state[i] = u00*a0 + u01*a1
		state[j] = u10*a0 + u11*a1
	}
}

// applyControlled applies u to target when control is |1⟩.
func applyControlled(state []complex128, u *mat.CDense, control, target int) {
	u00, u01, u10, u11 := u.At(0, 0), u.At(0, 1), u.At(1, 0), u.At(1, 1)
	cbit, tbit := 1<<control, 1<<target
	for i := range state {
		if i&cbit == 0 || i&tbit != 0 {
			continue
		}
		j := i | tbit
		a0, a1 := state[i], state[j]
		state[i] = u00*a0 + u01*a1
		state[j] = u10*a0 + u11*a1
	}
}
