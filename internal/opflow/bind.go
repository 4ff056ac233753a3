package opflow

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/circuit"
)

// Bind substitutes values into every coefficient and circuit of e.
// Parameters missing from values stay symbolic.
func (e *Expr) Bind(values circuit.Values) *Expr {
	out := e.shallow()
	out.coeff = e.coeff.Bind(values)
	if e.kind == KindExpectation {
		if e.state == stateCircuit {
			out.circuit = e.circuit.Bind(values)
		}
		return out
	}
	if e.operand != nil {
		out.operand = e.operand.Bind(values)
	}
	out.children = make([]*Expr, len(e.children))
	for i, c := range e.children {
		out.children[i] = c.Bind(values)
	}
	return out
}

// BindBatch binds every row of b and returns the List of bound copies.
//
// Evaluating the result yields shape (b.Size(), *shape of e).
func (e *Expr) BindBatch(b *circuit.Batch) *Expr {
	rows := make([]*Expr, b.Size())
	for i := range rows {
		rows[i] = e.Bind(b.Row(i))
	}
	return NewList(rows, nil)
}

// BindRows binds row i of b onto child i of a per-row List, as produced by
// BindBatch or Sampler.Convert.
func (e *Expr) BindRows(b *circuit.Batch) (*Expr, error) {
	if e.kind != KindList || e.combo != nil || len(e.children) != b.Size() {
		return nil, errors.Wrapf(ErrBatchRows, "%s with %d children for a batch of %d", e.kind, len(e.children), b.Size())
	}
	out := e.shallow()
	out.children = make([]*Expr, len(e.children))
	for i, c := range e.children {
		out.children[i] = c.Bind(b.Row(i))
	}
	return out, nil
}
