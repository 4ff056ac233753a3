// Package opflow implements parametrized operator expressions: expectation
// values of Pauli observables on parametrized circuits, lists of such
// expressions combined by a post-processing function, and the converters
// that turn them into measurable or differentiated forms.
//
// Expressions are immutable. Bind, Convert and the Sampler always return
// new trees, so an expression can be shared by forward and backward passes.
package opflow

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/tensor"
)

// Kind tags the variant of an expression.
type Kind int

const (
	// KindExpectation is a leaf: coeff·⟨ψ(θ)|O|ψ(θ)⟩.
	KindExpectation Kind = iota

	// KindList stacks its children along a new leading axis and applies
	// the combo function, if any.
	KindList

	// KindSummed adds its children. It is deliberately not a KindList:
	// shape inference treats it as a leaf.
	KindSummed

	// KindGradient stacks per-parameter derivatives along a trailing axis.
	KindGradient

	// KindChain differentiates a combo function along its children's derivatives.
	KindChain
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindExpectation:
		return "Expectation"
	case KindList:
		return "List"
	case KindSummed:
		return "Summed"
	case KindGradient:
		return "Gradient"
	case KindChain:
		return "Chain"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ComboFn post-processes the stacked values of a List's children.
//
// The input has shape (len(children), *childShape). A ComboFn must be pure.
type ComboFn func(x *tensor.Tensor[complex128]) (*tensor.Tensor[complex128], error)

// SumCombo reduces the leading axis by summation.
func SumCombo(x *tensor.Tensor[complex128]) (*tensor.Tensor[complex128], error) {
	shape := x.Shape()
	if len(shape) == 0 {
		return x.Clone(), nil
	}
	inner := tensor.Shape(shape[1:])
	out := tensor.Zeros[complex128](inner)
	n := inner.NumElements()
	for i, v := range x.Data() {
		out.Data()[i%n] += v
	}
	return out, nil
}

type stateKind int

const (
	stateCircuit stateKind = iota
	stateVector
	stateProbs
)

// Expr is a parametrized operator expression.
type Expr struct {
	kind  Kind
	coeff circuit.Expression

	// KindExpectation.
	observable Observable
	state      stateKind
	circuit    *circuit.Circuit
	vector     []complex128
	probs      map[uint64]float64
	exact      bool

	// KindList, KindSummed, KindGradient, KindChain.
	children []*Expr
	combo    ComboFn

	// KindChain: the List whose combo is differentiated.
	operand *Expr
}

// NewExpectation creates the leaf ⟨ψ(θ)|O|ψ(θ)⟩ with ψ(θ) = C(θ)|0…0⟩.
func NewExpectation(obs Observable, c *circuit.Circuit) (*Expr, error) {
	if obs.NumQubits() != c.NumQubits() {
		return nil, errors.Wrapf(ErrQubitMismatch, "observable on %d qubits, circuit on %d", obs.NumQubits(), c.NumQubits())
	}
	return &Expr{
		kind:       KindExpectation,
		coeff:      circuit.Constant(1),
		observable: obs,
		state:      stateCircuit,
		circuit:    c,
	}, nil
}

// NewList creates a composite expression. A nil combo stacks the children.
func NewList(children []*Expr, combo ComboFn) *Expr {
	return &Expr{
		kind:     KindList,
		coeff:    circuit.Constant(1),
		children: append([]*Expr(nil), children...),
		combo:    combo,
	}
}

// NewSummed creates the sum of children.
func NewSummed(children ...*Expr) *Expr {
	return &Expr{
		kind:     KindSummed,
		coeff:    circuit.Constant(1),
		children: append([]*Expr(nil), children...),
	}
}

// Kind returns the variant tag.
func (e *Expr) Kind() Kind {
	return e.kind
}

// Coeff returns the scalar coefficient.
func (e *Expr) Coeff() circuit.Expression {
	return e.coeff
}

// Children returns the child expressions of a composite.
func (e *Expr) Children() []*Expr {
	return append([]*Expr(nil), e.children...)
}

// Combo returns the combo function of a List (nil means identity).
func (e *Expr) Combo() ComboFn {
	return e.combo
}

// Observable returns the observable of a leaf.
func (e *Expr) Observable() Observable {
	return e.observable
}

// Circuit returns the state circuit of a leaf, or nil once the state has
// been evaluated by a sampler.
func (e *Expr) Circuit() *circuit.Circuit {
	if e.state != stateCircuit {
		return nil
	}
	return e.circuit
}

// IsExact reports whether a leaf is always evaluated on the exact statevector.
func (e *Expr) IsExact() bool {
	return e.exact
}

// WithCoeff returns e multiplied by c.
//
// Coefficients are linear forms, so at most one factor may be parametrized.
func (e *Expr) WithCoeff(c circuit.Expression) (*Expr, error) {
	out := e.shallow()
	switch v, ok := e.coeff.Value(); {
	case ok:
		out.coeff = c.Scale(v)
	default:
		cv, ok := c.Value()
		if !ok {
			return nil, errors.Wrapf(ErrNonLinear, "(%s)·(%s)", e.coeff, c)
		}
		out.coeff = e.coeff.Scale(cv)
	}
	return out, nil
}

// Scale returns k·e.
func (e *Expr) Scale(k float64) *Expr {
	out := e.shallow()
	out.coeff = e.coeff.Scale(k)
	return out
}

// Parameters returns every parameter referenced by e in creation order.
func (e *Expr) Parameters() []*circuit.Parameter {
	seen := make(map[*circuit.Parameter]struct{})
	var ps []*circuit.Parameter
	add := func(list []*circuit.Parameter) {
		for _, p := range list {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				ps = append(ps, p)
			}
		}
	}
	e.walk(func(x *Expr) {
		add(x.coeff.Parameters())
		if x.kind == KindExpectation && x.state == stateCircuit {
			add(x.circuit.Parameters())
		}
	})
	circuit.SortParameters(ps)
	return ps
}

// shallow copies e; slices are shared and must not be mutated.
func (e *Expr) shallow() *Expr {
	out := *e
	return &out
}

// walk visits e and every sub-expression in depth-first order.
func (e *Expr) walk(fn func(*Expr)) {
	fn(e)
	if e.operand != nil {
		e.operand.walk(fn)
	}
	for _, c := range e.children {
		c.walk(fn)
	}
}

// mapLeaves rebuilds e with every leaf replaced by fn(leaf).
func (e *Expr) mapLeaves(fn func(*Expr) (*Expr, error)) (*Expr, error) {
	if e.kind == KindExpectation {
		return fn(e)
	}
	out := e.shallow()
	if e.operand != nil {
		op, err := e.operand.mapLeaves(fn)
		if err != nil {
			return nil, err
		}
		out.operand = op
	}
	out.children = make([]*Expr, len(e.children))
	for i, c := range e.children {
		mc, err := c.mapLeaves(fn)
		if err != nil {
			return nil, err
		}
		out.children[i] = mc
	}
	return out, nil
}

// String renders the expression tree.
func (e *Expr) String() string {
	var b strings.Builder
	e.format(&b, 0)
	return b.String()
}

func (e *Expr) format(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	coeff := ""
	if v, ok := e.coeff.Value(); !ok || v != 1 {
		coeff = "(" + e.coeff.String() + ") * "
	}
	switch e.kind {
	case KindExpectation:
		fmt.Fprintf(b, "%s%s⟨%s⟩ on %d qubits", indent, coeff, e.observable, e.observable.NumQubits())
	default:
		fmt.Fprintf(b, "%s%s%s[", indent, coeff, e.kind)
		if e.operand != nil {
			b.WriteString("\n")
			e.operand.format(b, depth+1)
			b.WriteString(";")
		}
		for _, c := range e.children {
			b.WriteString("\n")
			c.format(b, depth+1)
		}
		fmt.Fprintf(b, "\n%s]", indent)
	}
}
