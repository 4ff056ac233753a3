package qnn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/tensor"
)

// outputShapeOf infers the per-row output shape of op.
//
// Only opflow.KindList counts as a list here: Summed and every other kind
// evaluate to one value per row, shape (1,). The list's combo function is
// applied to zeros of the stacked child shape to learn its output shape.
func outputShapeOf(op *opflow.Expr) (tensor.Shape, error) {
	if op.Kind() != opflow.KindList {
		return tensor.Shape{1}, nil
	}
	children := op.Children()
	if len(children) == 0 {
		return nil, errors.Wrap(ErrInconsistentShape, "list has no children")
	}
	shapes := make([]tensor.Shape, len(children))
	for i, child := range children {
		s, err := outputShapeOf(child)
		if err != nil {
			return nil, err
		}
		shapes[i] = s
	}
	for i, s := range shapes[1:] {
		if !s.Equal(shapes[0]) {
			return nil, errors.Wrapf(ErrInconsistentShape, "child 0 has shape %v, child %d has shape %v", shapes[0], i+1, s)
		}
	}

	placeholder := tensor.Zeros[complex128](shapes[0].Prepend(len(children)))
	if shapes[0].Equal(tensor.Shape{1}) {
		placeholder = tensor.Zeros[complex128](tensor.Shape{len(children)})
	}
	combo := op.Combo()
	if combo == nil {
		return placeholder.Shape(), nil
	}
	out, err := combo(placeholder)
	if err != nil {
		return nil, errors.Wrap(err, "applying combo function to placeholder")
	}
	return out.Shape().Clone(), nil
}
