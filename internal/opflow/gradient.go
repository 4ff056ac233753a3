package opflow

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/circuit"
)

// GradientMethod selects how circuit derivatives are built.
type GradientMethod int

const (
	// ParamShift uses the exact ±π/2 shift rule of rotation gates.
	ParamShift GradientMethod = iota

	// FiniteDiff uses a central difference of step Epsilon.
	FiniteDiff
)

// String implements fmt.Stringer.
func (m GradientMethod) String() string {
	if m == FiniteDiff {
		return "finite_diff"
	}
	return "param_shift"
}

// GradientConverter builds the gradient expression of an operator.
type GradientConverter interface {
	// Convert returns an expression evaluating to (*shape of e, len(params)).
	Convert(e *Expr, params []*circuit.Parameter) (*Expr, error)
}

// Gradient differentiates expressions with respect to a parameter list.
type Gradient struct {
	Method  GradientMethod
	Epsilon float64 // Finite-difference step (default: 1e-6).
}

// NewGradient returns the default parameter-shift gradient.
func NewGradient() *Gradient {
	return &Gradient{Method: ParamShift}
}

// Convert implements GradientConverter.
//
// Component j of the result is ∂e/∂params[j]; the order of params is kept.
func (g *Gradient) Convert(e *Expr, params []*circuit.Parameter) (*Expr, error) {
	children := make([]*Expr, len(params))
	for j, p := range params {
		d, err := g.derivative(e, p)
		if err != nil {
			return nil, errors.Wrapf(err, "d/d%s", p)
		}
		children[j] = d
	}
	return &Expr{kind: KindGradient, coeff: constantOne, children: children}, nil
}

func (g *Gradient) epsilon() float64 {
	if g.Epsilon > 0 {
		return g.Epsilon
	}
	return 1e-6
}

// derivative returns ∂e/∂p.
//
// Coefficients follow the product rule: ∂(c·x) = c'·x + c·∂x.
func (g *Gradient) derivative(e *Expr, p *circuit.Parameter) (*Expr, error) {
	var inner *Expr
	switch e.kind {
	case KindExpectation:
		leaf, err := g.leafDerivative(e, p)
		if err != nil {
			return nil, err
		}
		inner = leaf

	case KindSummed, KindList:
		dch := make([]*Expr, len(e.children))
		for i, c := range e.children {
			d, err := g.derivative(c, p)
			if err != nil {
				return nil, err
			}
			dch[i] = d
		}
		switch {
		case e.kind == KindSummed:
			inner = &Expr{kind: KindSummed, coeff: e.coeff, children: dch}
		case e.combo == nil:
			inner = &Expr{kind: KindList, coeff: e.coeff, children: dch}
		default:
			operand := e.shallow()
			operand.coeff = constantOne
			inner = &Expr{kind: KindChain, coeff: e.coeff, operand: operand, children: dch}
		}

	default:
		return nil, errors.Wrapf(ErrNotDifferentiable, "%s expression", e.kind)
	}

	dc := e.coeff.Derivative(p)
	if dc == 0 || e.kind == KindExpectation {
		return inner, nil
	}
	outer := e.shallow()
	outer.coeff = circuit.Constant(dc)
	return NewSummed(inner, outer), nil
}

// leafDerivative differentiates coeff·⟨ψ(θ)|O|ψ(θ)⟩.
func (g *Gradient) leafDerivative(e *Expr, p *circuit.Parameter) (*Expr, error) {
	var terms []*Expr
	if dc := e.coeff.Derivative(p); dc != 0 {
		t := e.shallow()
		t.coeff = circuit.Constant(dc)
		terms = append(terms, t)
	}
	if e.state != stateCircuit {
		if len(terms) == 0 {
			return NewSummed(), nil
		}
		return nil, errors.Wrap(ErrNotDifferentiable, "leaf state was already evaluated")
	}

	shifted := func(c *circuit.Circuit, scale float64) *Expr {
		t := e.shallow()
		t.circuit = c
		t.coeff = e.coeff.Scale(scale)
		return t
	}

	switch g.Method {
	case ParamShift:
		for i, gate := range e.circuit.Gates() {
			a := gate.Angle.Derivative(p)
			if a == 0 {
				continue
			}
			terms = append(terms,
				shifted(e.circuit.ShiftGate(i, math.Pi/2), a/2),
				shifted(e.circuit.ShiftGate(i, -math.Pi/2), -a/2),
			)
		}
	case FiniteDiff:
		dependsOn := false
		for _, gate := range e.circuit.Gates() {
			dependsOn = dependsOn || gate.Angle.DependsOn(p)
		}
		if dependsOn {
			eps := g.epsilon()
			terms = append(terms,
				shifted(e.circuit.ShiftParam(p, eps), 1/(2*eps)),
				shifted(e.circuit.ShiftParam(p, -eps), -1/(2*eps)),
			)
		}
	default:
		return nil, errors.Errorf("opflow: unknown gradient method %d", g.Method)
	}
	return NewSummed(terms...), nil
}

var _ GradientConverter = (*Gradient)(nil)
