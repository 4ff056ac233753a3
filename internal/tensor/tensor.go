// Package tensor provides the dense n-dimensional arrays exchanged between
// quantum neural networks and their callers.
//
// Tensors hold float64 (network inputs, weights, outputs, gradients) or
// complex128 (raw operator evaluations) data in row-major order.
package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when element counts or dimensions disagree.
var ErrShapeMismatch = errors.New("shape mismatch")

// Scalar is a constraint for tensor element types.
type Scalar interface {
	~float64 | ~complex128
}

// Tensor is a dense row-major array of T.
//
// Example:
//
//	x, _ := tensor.FromSlice([]float64{0, 1.5708}, tensor.Shape{2, 1})
//	col := x.Column(0) // [0 1.5708]
type Tensor[T Scalar] struct {
	data  []T
	shape Shape
}

// Zeros creates a tensor filled with zeros.
func Zeros[T Scalar](shape Shape) *Tensor[T] {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor.Zeros: %v", err))
	}
	return &Tensor[T]{
		data:  make([]T, shape.NumElements()),
		shape: shape.Clone(),
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Scalar](data []T, shape Shape) (*Tensor[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	t := &Tensor[T]{
		data:  make([]T, len(data)),
		shape: shape.Clone(),
	}
	copy(t.data, data)
	return t, nil
}

// NewScalar creates a 0-D tensor holding v.
func NewScalar[T Scalar](v T) *Tensor[T] {
	return &Tensor[T]{data: []T{v}, shape: Shape{}}
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return len(t.data)
}

// Data returns the underlying row-major data.
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Item returns the single value of a one-element tensor.
// Panics if the tensor holds more than one element.
func (t *Tensor[T]) Item() T {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data[0]
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) At(indices ...int) T {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor[T]) Set(value T, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor[T]) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	strides := t.shape.ComputeStrides()
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone returns a deep copy of the tensor.
func (t *Tensor[T]) Clone() *Tensor[T] {
	out := &Tensor[T]{data: make([]T, len(t.data)), shape: t.shape.Clone()}
	copy(out.data, t.data)
	return out
}

// Reshape returns a tensor sharing t's data with a new shape.
// At most one dimension may be -1; it is inferred from the element count.
func (t *Tensor[T]) Reshape(dims ...int) (*Tensor[T], error) {
	shape, err := resolve(dims, len(t.data))
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{data: t.data, shape: shape}, nil
}

// Row returns a copy of row i of a 2-D tensor.
func (t *Tensor[T]) Row(i int) []T {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Row: expected 2-D tensor, got shape %v", t.shape))
	}
	cols := t.shape[1]
	out := make([]T, cols)
	copy(out, t.data[i*cols:(i+1)*cols])
	return out
}

// Column returns a copy of column j of a 2-D tensor.
func (t *Tensor[T]) Column(j int) []T {
	if len(t.shape) != 2 {
		panic(fmt.Sprintf("Column: expected 2-D tensor, got shape %v", t.shape))
	}
	rows, cols := t.shape[0], t.shape[1]
	if j < 0 || j >= cols {
		panic(fmt.Sprintf("column %d out of bounds (size %d)", j, cols))
	}
	out := make([]T, rows)
	for i := range rows {
		out[i] = t.data[i*cols+j]
	}
	return out
}

// Real returns the element-wise real part of a complex tensor.
func Real(t *Tensor[complex128]) *Tensor[float64] {
	out := &Tensor[float64]{data: make([]float64, len(t.data)), shape: t.shape.Clone()}
	for i, v := range t.data {
		out.data[i] = real(v)
	}
	return out
}

// Complex widens a real tensor to complex128.
func Complex(t *Tensor[float64]) *Tensor[complex128] {
	out := &Tensor[complex128]{data: make([]complex128, len(t.data)), shape: t.shape.Clone()}
	for i, v := range t.data {
		out.data[i] = complex(v, 0)
	}
	return out
}
