package circuit

import (
	"fmt"
	"strings"
)

// Expression is a linear form over parameters: Σ a_i·p_i + c.
//
// Gate angles and operator coefficients are Expressions. The zero value is
// the constant 0. Expressions are immutable.
type Expression struct {
	terms    map[*Parameter]float64
	constant float64
}

// Constant returns the expression c.
func Constant(c float64) Expression {
	return Expression{constant: c}
}

// Param returns the expression 1·p.
func Param(p *Parameter) Expression {
	return Linear(p, 1, 0)
}

// Linear returns the expression a·p + c.
func Linear(p *Parameter, a, c float64) Expression {
	if a == 0 {
		return Constant(c)
	}
	return Expression{terms: map[*Parameter]float64{p: a}, constant: c}
}

// Add returns e + o.
func (e Expression) Add(o Expression) Expression {
	out := Expression{constant: e.constant + o.constant}
	for _, src := range []map[*Parameter]float64{e.terms, o.terms} {
		for p, a := range src {
			if out.terms == nil {
				out.terms = make(map[*Parameter]float64)
			}
			out.terms[p] += a
			if out.terms[p] == 0 {
				delete(out.terms, p)
			}
		}
	}
	return out
}

// Scale returns k·e.
func (e Expression) Scale(k float64) Expression {
	if k == 0 {
		return Constant(0)
	}
	out := Expression{constant: k * e.constant}
	if len(e.terms) > 0 {
		out.terms = make(map[*Parameter]float64, len(e.terms))
		for p, a := range e.terms {
			out.terms[p] = k * a
		}
	}
	return out
}

// Shift returns e + c.
func (e Expression) Shift(c float64) Expression {
	return e.Add(Constant(c))
}

// Bind substitutes the bound parameters. Unbound parameters remain symbolic.
func (e Expression) Bind(values Values) Expression {
	out := Expression{constant: e.constant}
	for p, a := range e.terms {
		if v, ok := values[p]; ok {
			out.constant += a * v
			continue
		}
		if out.terms == nil {
			out.terms = make(map[*Parameter]float64)
		}
		out.terms[p] = a
	}
	return out
}

// IsBound reports whether e references no parameters.
func (e Expression) IsBound() bool {
	return len(e.terms) == 0
}

// Value returns the numeric value of a bound expression.
func (e Expression) Value() (float64, bool) {
	if !e.IsBound() {
		return 0, false
	}
	return e.constant, true
}

// Derivative returns ∂e/∂p, which is constant for a linear form.
func (e Expression) Derivative(p *Parameter) float64 {
	return e.terms[p]
}

// DependsOn reports whether e references p.
func (e Expression) DependsOn(p *Parameter) bool {
	_, ok := e.terms[p]
	return ok
}

// ShiftParam returns e with p replaced by p+delta.
func (e Expression) ShiftParam(p *Parameter, delta float64) Expression {
	return e.Shift(e.Derivative(p) * delta)
}

// Parameters returns the referenced parameters in creation order.
func (e Expression) Parameters() []*Parameter {
	ps := make([]*Parameter, 0, len(e.terms))
	for p := range e.terms {
		ps = append(ps, p)
	}
	SortParameters(ps)
	return ps
}

// String implements fmt.Stringer.
func (e Expression) String() string {
	if e.IsBound() {
		return fmt.Sprint(e.constant)
	}
	var b strings.Builder
	for i, p := range e.Parameters() {
		if i > 0 {
			b.WriteString(" + ")
		}
		if a := e.terms[p]; a != 1 {
			fmt.Fprintf(&b, "%v*", a)
		}
		b.WriteString(p.name)
	}
	if e.constant != 0 {
		fmt.Fprintf(&b, " + %v", e.constant)
	}
	return b.String()
}
