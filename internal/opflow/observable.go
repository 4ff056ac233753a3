package opflow

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PauliTerm is one weighted Pauli string.
//
// Label characters are I, X, Y, Z; the rightmost character acts on qubit 0.
type PauliTerm struct {
	Label string
	Coeff complex128
}

// Observable is a weighted sum of Pauli strings on a fixed register.
type Observable struct {
	numQubits int
	terms     []PauliTerm
}

// Pauli creates a single-term observable such as Pauli("ZI", 1).
func Pauli(label string, coeff complex128) (Observable, error) {
	if label == "" {
		return Observable{}, errors.Wrap(ErrInvalidPauli, "empty label")
	}
	label = strings.ToUpper(label)
	for _, r := range label {
		if !strings.ContainsRune("IXYZ", r) {
			return Observable{}, errors.Wrapf(ErrInvalidPauli, "%q", label)
		}
	}
	return Observable{numQubits: len(label), terms: []PauliTerm{{Label: label, Coeff: coeff}}}, nil
}

// Sum adds observables of equal width.
func Sum(obs ...Observable) (Observable, error) {
	if len(obs) == 0 {
		return Observable{}, errors.Wrap(ErrInvalidPauli, "empty sum")
	}
	out := Observable{numQubits: obs[0].numQubits}
	for _, o := range obs {
		if o.numQubits != out.numQubits {
			return Observable{}, errors.Wrapf(ErrQubitMismatch, "cannot add %d-qubit and %d-qubit observables", out.numQubits, o.numQubits)
		}
		out.terms = append(out.terms, o.terms...)
	}
	return out, nil
}

// NumQubits returns the register width.
func (o Observable) NumQubits() int {
	return o.numQubits
}

// Terms returns the Pauli terms.
func (o Observable) Terms() []PauliTerm {
	return o.terms
}

// IsDiagonal reports whether every term contains only I and Z.
func (o Observable) IsDiagonal() bool {
	for _, t := range o.terms {
		if strings.ContainsAny(t.Label, "XY") {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (o Observable) String() string {
	parts := make([]string, len(o.terms))
	for i, t := range o.terms {
		parts[i] = fmt.Sprintf("%v*%s", t.Coeff, t.Label)
	}
	return strings.Join(parts, " + ")
}

// pauliAt returns the Pauli acting on qubit q.
func pauliAt(label string, q int) byte {
	return label[len(label)-1-q]
}

// expectation computes ⟨ψ|O|ψ⟩ exactly.
func (o Observable) expectation(state []complex128) complex128 {
	var total complex128
	for _, t := range o.terms {
		var flip int
		for q := range o.numQubits {
			if c := pauliAt(t.Label, q); c == 'X' || c == 'Y' {
				flip |= 1 << q
			}
		}
		var sum complex128
		for i, amp := range state {
			if amp == 0 {
				continue
			}
			phase := complex(1, 0)
			for q := range o.numQubits {
				bit := i >> q & 1
				switch pauliAt(t.Label, q) {
				case 'Z':
					if bit == 1 {
						phase = -phase
					}
				case 'Y':
					// Y|0⟩ = i|1⟩, Y|1⟩ = -i|0⟩
					if bit == 0 {
						phase *= 1i
					} else {
						phase *= -1i
					}
				}
			}
			j := i ^ flip
			sum += conj(state[j]) * phase * amp
		}
		total += t.Coeff * sum
	}
	return total
}

// diagonalExpectation computes ⟨O⟩ from a measurement distribution.
func (o Observable) diagonalExpectation(probs map[uint64]float64) (complex128, error) {
	if !o.IsDiagonal() {
		return 0, errors.Wrapf(ErrNonDiagonal, "observable %s", o)
	}
	var total complex128
	for _, t := range o.terms {
		var sum float64
		for idx, p := range probs {
			sign := 1.0
			for q := range o.numQubits {
				if pauliAt(t.Label, q) == 'Z' && idx>>q&1 == 1 {
					sign = -sign
				}
			}
			sum += sign * p
		}
		total += t.Coeff * complex(sum, 0)
	}
	return total, nil
}

// diagonalized returns the Z-basis label of t and the basis changes mapping t onto it.
func (t PauliTerm) diagonalized() (label string, rotations []basisChange) {
	b := []byte(t.Label)
	n := len(b)
	for q := range n {
		switch b[n-1-q] {
		case 'X':
			rotations = append(rotations, basisChange{qubit: q})
			b[n-1-q] = 'Z'
		case 'Y':
			rotations = append(rotations, basisChange{qubit: q, sdg: true})
			b[n-1-q] = 'Z'
		}
	}
	return string(b), rotations
}

type basisChange struct {
	qubit int
	sdg   bool
}

func conj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
