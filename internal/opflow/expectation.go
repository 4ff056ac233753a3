package opflow

import "github.com/born-ml/qnn/internal/circuit"

// Converter rewrites an expression into an equivalent one.
type Converter interface {
	Convert(e *Expr) (*Expr, error)
}

// PauliExpectation rewrites every leaf into a sum of single-term leaves
// measured in the Z basis, appending the basis rotations to each circuit.
// Shot-based backends can only evaluate such diagonal leaves.
type PauliExpectation struct{}

// Convert implements Converter.
func (PauliExpectation) Convert(e *Expr) (*Expr, error) {
	return e.mapLeaves(func(leaf *Expr) (*Expr, error) {
		if leaf.state != stateCircuit || (len(leaf.observable.terms) == 1 && leaf.observable.IsDiagonal()) {
			return leaf, nil
		}
		terms := make([]*Expr, len(leaf.observable.terms))
		for i, t := range leaf.observable.terms {
			label, rotations := t.diagonalized()
			c := leaf.circuit.Copy()
			for _, r := range rotations {
				if r.sdg {
					c.Sdg(r.qubit)
				}
				c.H(r.qubit)
			}
			obs, err := Pauli(label, t.Coeff)
			if err != nil {
				return nil, err
			}
			term, err := NewExpectation(obs, c)
			if err != nil {
				return nil, err
			}
			term.exact = leaf.exact
			terms[i] = term
		}
		sum := NewSummed(terms...)
		sum.coeff = leaf.coeff
		return sum, nil
	})
}

// MatrixExpectation marks every leaf for exact statevector evaluation,
// even when the execution backend samples shots.
type MatrixExpectation struct{}

// Convert implements Converter.
func (MatrixExpectation) Convert(e *Expr) (*Expr, error) {
	return e.mapLeaves(func(leaf *Expr) (*Expr, error) {
		out := leaf.shallow()
		out.exact = true
		return out, nil
	})
}

var (
	_ Converter = PauliExpectation{}
	_ Converter = MatrixExpectation{}
)

// constantOne is the default coefficient.
var constantOne = circuit.Constant(1)
