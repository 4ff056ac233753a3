// Package qnn implements quantum neural networks: differentiable models
// whose forward pass is the expectation value of a parametrized operator.
//
// This package provides:
//   - NeuralNetwork: the contract shared by every network (shapes, batches)
//   - OpflowQNN: a network backed by an opflow operator expression
//
// Inputs are batched row-wise: an input of shape (batch, NumInputs) yields
// an output of shape (batch, *OutputShape).
package qnn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/tensor"
)

// Sentinel errors.
var (
	ErrShapeMismatch        = errors.New("input or weight shape does not match the network")
	ErrInconsistentShape    = errors.New("only lists whose children share one output shape are supported")
	ErrDuplicateParameter   = errors.New("parameter is both an input and a weight")
	ErrConflictingExecution = errors.New("set either an execution context or a backend, not both")
)

// NeuralNetwork is the interface of every quantum neural network.
type NeuralNetwork interface {
	// NumInputs returns the number of input features per batch row.
	NumInputs() int

	// NumWeights returns the number of trainable weights.
	NumWeights() int

	// OutputShape returns the shape of one batch row's output.
	OutputShape() tensor.Shape

	// Forward computes outputs of shape (batch, *OutputShape).
	//
	// input is nil, 1-D (a single row) or 2-D (batch, NumInputs); weights is
	// nil or 1-D of length NumWeights. nil is only accepted for empty sizes.
	Forward(input, weights *tensor.Tensor[float64]) (*tensor.Tensor[float64], error)

	// Backward computes the gradients of the outputs with respect to the
	// inputs, shape (batch, *OutputShape, NumInputs), and to the weights,
	// shape (batch, *OutputShape, NumWeights).
	Backward(input, weights *tensor.Tensor[float64]) (inputGrad, weightGrad *tensor.Tensor[float64], err error)
}

// network holds the sizes fixed at construction and validates call arguments.
type network struct {
	numInputs   int
	numWeights  int
	outputShape tensor.Shape
}

func newNetwork(numInputs, numWeights int, outputShape tensor.Shape) network {
	return network{
		numInputs:   numInputs,
		numWeights:  numWeights,
		outputShape: outputShape.Clone(),
	}
}

// NumInputs returns the number of input features per batch row.
func (n *network) NumInputs() int {
	return n.numInputs
}

// NumWeights returns the number of trainable weights.
func (n *network) NumWeights() int {
	return n.numWeights
}

// OutputShape returns the shape of one batch row's output.
func (n *network) OutputShape() tensor.Shape {
	return n.outputShape.Clone()
}

// validateInput returns input as a 2-D (batch, NumInputs) tensor.
func (n *network) validateInput(input *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	if input == nil {
		if n.numInputs != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "nil input for a network with %d inputs", n.numInputs)
		}
		return tensor.Zeros[float64](tensor.Shape{1, 0}), nil
	}
	shape := input.Shape()
	switch len(shape) {
	case 1:
		if shape[0] != n.numInputs {
			return nil, errors.Wrapf(ErrShapeMismatch, "input shape %v, want (%d,)", shape, n.numInputs)
		}
		return input.Reshape(1, n.numInputs)
	case 2:
		if shape[1] != n.numInputs {
			return nil, errors.Wrapf(ErrShapeMismatch, "input shape %v, want (batch, %d)", shape, n.numInputs)
		}
		return input, nil
	default:
		return nil, errors.Wrapf(ErrShapeMismatch, "input must be 1-D or 2-D, got shape %v", shape)
	}
}

// validateWeights returns weights as a flat slice of NumWeights values.
func (n *network) validateWeights(weights *tensor.Tensor[float64]) ([]float64, error) {
	if weights == nil {
		if n.numWeights != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "nil weights for a network with %d weights", n.numWeights)
		}
		return nil, nil
	}
	if weights.NumElements() != n.numWeights || len(weights.Shape()) > 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "weights shape %v, want (%d,)", weights.Shape(), n.numWeights)
	}
	return weights.Data(), nil
}
