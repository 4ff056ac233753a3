// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense arrays exchanged with quantum neural networks.
//
// Example:
//
//	x, _ := tensor.FromSlice([]float64{0, 1.5708}, tensor.Shape{2, 1})
//	out, _ := net.Forward(x, nil) // Shape: (2, 1)
package tensor

import (
	"github.com/born-ml/qnn/internal/tensor"
)

// Scalar is a constraint for tensor element types (float64, complex128).
type Scalar = tensor.Scalar

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense row-major array.
type Tensor[T Scalar] = tensor.Tensor[T]

// ErrShapeMismatch is returned when element counts or dimensions disagree.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// Zeros creates a tensor filled with zeros.
func Zeros[T Scalar](shape Shape) *Tensor[T] {
	return tensor.Zeros[T](shape)
}

// FromSlice creates a tensor from a Go slice (copied).
func FromSlice[T Scalar](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// NewScalar creates a 0-D tensor holding v.
func NewScalar[T Scalar](v T) *Tensor[T] {
	return tensor.NewScalar(v)
}

// SplitLast splits the trailing dimension at index k.
func SplitLast[T Scalar](t *Tensor[T], k int) (*Tensor[T], *Tensor[T], error) {
	return tensor.SplitLast(t, k)
}

// Real returns the element-wise real part of a complex tensor.
func Real(t *Tensor[complex128]) *Tensor[float64] {
	return tensor.Real(t)
}
