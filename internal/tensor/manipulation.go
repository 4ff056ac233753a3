package tensor

import "fmt"

// Stack joins equally shaped tensors along a new leading dimension.
//
// Example:
//
//	a := tensor.NewScalar(1.0)
//	b := tensor.NewScalar(2.0)
//	s, _ := tensor.Stack([]*Tensor[float64]{a, b}) // Shape: (2,)
func Stack[T Scalar](ts []*Tensor[T]) (*Tensor[T], error) {
	if len(ts) == 0 {
		return Zeros[T](Shape{0}), nil
	}
	inner := ts[0].shape
	data := make([]T, 0, len(ts)*inner.NumElements())
	for i, t := range ts {
		if !t.shape.Equal(inner) {
			return nil, fmt.Errorf("%w: stack element %d has shape %v, want %v", ErrShapeMismatch, i, t.shape, inner)
		}
		data = append(data, t.data...)
	}
	return &Tensor[T]{data: data, shape: inner.Prepend(len(ts))}, nil
}

// StackLast joins equally shaped tensors along a new trailing dimension.
//
// For inputs of shape (a, b) the result has shape (a, b, len(ts)).
func StackLast[T Scalar](ts []*Tensor[T]) (*Tensor[T], error) {
	if len(ts) == 0 {
		return Zeros[T](Shape{0}), nil
	}
	inner := ts[0].shape
	n := inner.NumElements()
	k := len(ts)
	data := make([]T, n*k)
	for j, t := range ts {
		if !t.shape.Equal(inner) {
			return nil, fmt.Errorf("%w: stack element %d has shape %v, want %v", ErrShapeMismatch, j, t.shape, inner)
		}
		for i, v := range t.data {
			data[i*k+j] = v
		}
	}
	return &Tensor[T]{data: data, shape: inner.Append(k)}, nil
}

// SplitLast splits the trailing dimension at index k.
//
// For t of shape (..., m) it returns tensors of shape (..., k) and (..., m-k).
// Either side may have a zero-length trailing dimension.
func SplitLast[T Scalar](t *Tensor[T], k int) (*Tensor[T], *Tensor[T], error) {
	if len(t.shape) == 0 {
		return nil, nil, fmt.Errorf("%w: cannot split a scalar", ErrShapeMismatch)
	}
	m := t.shape[len(t.shape)-1]
	if k < 0 || k > m {
		return nil, nil, fmt.Errorf("%w: split index %d out of range for trailing size %d", ErrShapeMismatch, k, m)
	}
	lead := t.shape[:len(t.shape)-1]
	rows := lead.NumElements()
	left := Zeros[T](lead.Append(k))
	right := Zeros[T](lead.Append(m - k))
	for r := range rows {
		copy(left.data[r*k:(r+1)*k], t.data[r*m:r*m+k])
		copy(right.data[r*(m-k):(r+1)*(m-k)], t.data[r*m+k:(r+1)*m])
	}
	return left, right, nil
}

// Add returns a + b element-wise.
// A one-element operand is broadcast against the other.
func Add[T Scalar](a, b *Tensor[T]) (*Tensor[T], error) {
	return AddScaled(a, b, 1)
}

// AddScaled returns a + alpha*b element-wise, broadcasting one-element operands.
func AddScaled[T Scalar](a, b *Tensor[T], alpha T) (*Tensor[T], error) {
	switch {
	case a.shape.Equal(b.shape):
		out := a.Clone()
		for i, v := range b.data {
			out.data[i] += alpha * v
		}
		return out, nil
	case len(b.data) == 1 && len(b.shape) == 0:
		out := a.Clone()
		for i := range out.data {
			out.data[i] += alpha * b.data[0]
		}
		return out, nil
	case len(a.data) == 1 && len(a.shape) == 0:
		out := b.Clone()
		for i := range out.data {
			out.data[i] = a.data[0] + alpha*out.data[i]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot add %v and %v", ErrShapeMismatch, a.shape, b.shape)
	}
}

// Scale returns alpha*t.
func Scale[T Scalar](t *Tensor[T], alpha T) *Tensor[T] {
	out := t.Clone()
	for i := range out.data {
		out.data[i] *= alpha
	}
	return out
}

// Rows returns a copy of the sub-tensor t[start:end] along the leading dimension.
func (t *Tensor[T]) Rows(start, end int) (*Tensor[T], error) {
	if len(t.shape) == 0 {
		return nil, fmt.Errorf("%w: cannot slice a scalar", ErrShapeMismatch)
	}
	if start < 0 || end < start || end > t.shape[0] {
		return nil, fmt.Errorf("%w: rows [%d, %d) out of range for %v", ErrShapeMismatch, start, end, t.shape)
	}
	stride := Shape(t.shape[1:]).NumElements()
	out := Zeros[T](Shape(t.shape[1:]).Prepend(end - start))
	copy(out.data, t.data[start*stride:end*stride])
	return out, nil
}
