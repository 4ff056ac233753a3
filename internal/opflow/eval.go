package opflow

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/backend/sim"
	"github.com/born-ml/qnn/internal/tensor"
)

// chainStep is the central-difference step used to differentiate combo functions.
const chainStep = 1e-6

// Eval evaluates a fully bound expression.
//
// Leaves evaluate to scalars, a List to (len(children), *childShape) before
// its combo function, a Gradient to (*childShape, len(children)).
func (e *Expr) Eval() (*tensor.Tensor[complex128], error) {
	coeff, ok := e.coeff.Value()
	if !ok {
		return nil, errors.Wrapf(ErrUnbound, "coefficient %s", e.coeff)
	}
	c := complex(coeff, 0)

	switch e.kind {
	case KindExpectation:
		v, err := e.evalLeaf()
		if err != nil {
			return nil, err
		}
		return tensor.NewScalar(c * v), nil

	case KindList:
		out, err := e.evalList()
		if err != nil {
			return nil, err
		}
		return tensor.Scale(out, c), nil

	case KindSummed:
		out := tensor.NewScalar[complex128](0)
		for i, child := range e.children {
			v, err := child.Eval()
			if err != nil {
				return nil, err
			}
			if out, err = tensor.Add(out, v); err != nil {
				return nil, errors.Wrapf(err, "summand %d", i)
			}
		}
		return tensor.Scale(out, c), nil

	case KindGradient:
		vals, err := evalAll(e.children)
		if err != nil {
			return nil, err
		}
		out, err := tensor.StackLast(vals)
		if err != nil {
			return nil, errors.Wrap(err, "gradient components")
		}
		return tensor.Scale(out, c), nil

	case KindChain:
		out, err := e.evalChain()
		if err != nil {
			return nil, err
		}
		return tensor.Scale(out, c), nil
	}
	return nil, errors.Errorf("opflow: unknown expression kind %d", e.kind)
}

func (e *Expr) evalLeaf() (complex128, error) {
	switch e.state {
	case stateVector:
		return e.observable.expectation(e.vector), nil
	case stateProbs:
		return e.observable.diagonalExpectation(e.probs)
	default:
		if !e.circuit.IsBound() {
			return 0, errors.Wrapf(ErrUnbound, "circuit parameters %v", e.circuit.Parameters())
		}
		state, err := sim.Simulate(e.circuit)
		if err != nil {
			return 0, err
		}
		return e.observable.expectation(state), nil
	}
}

func (e *Expr) evalList() (*tensor.Tensor[complex128], error) {
	vals, err := evalAll(e.children)
	if err != nil {
		return nil, err
	}
	stacked, err := tensor.Stack(vals)
	if err != nil {
		return nil, errors.Wrap(err, "list children")
	}
	if e.combo == nil {
		return stacked, nil
	}
	return e.combo(stacked)
}

// evalChain returns J_f(v)·d, the derivative of the operand's combo f at the
// operand's child values v along the child derivatives d.
func (e *Expr) evalChain() (*tensor.Tensor[complex128], error) {
	vals, err := evalAll(e.operand.children)
	if err != nil {
		return nil, err
	}
	v, err := tensor.Stack(vals)
	if err != nil {
		return nil, errors.Wrap(err, "chain operand")
	}
	dirs, err := evalAll(e.children)
	if err != nil {
		return nil, err
	}
	d, err := tensor.Stack(dirs)
	if err != nil {
		return nil, errors.Wrap(err, "chain directions")
	}
	plus, err := tensor.AddScaled(v, d, chainStep)
	if err != nil {
		return nil, err
	}
	minus, err := tensor.AddScaled(v, d, -chainStep)
	if err != nil {
		return nil, err
	}
	fp, err := e.operand.combo(plus)
	if err != nil {
		return nil, err
	}
	fm, err := e.operand.combo(minus)
	if err != nil {
		return nil, err
	}
	diff, err := tensor.AddScaled(fp, fm, -1)
	if err != nil {
		return nil, err
	}
	return tensor.Scale(diff, 1/(2*chainStep)), nil
}

func evalAll(exprs []*Expr) ([]*tensor.Tensor[complex128], error) {
	vals := make([]*tensor.Tensor[complex128], len(exprs))
	for i, x := range exprs {
		v, err := x.Eval()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
