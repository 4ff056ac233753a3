// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package qnn provides quantum neural networks.
//
// # Overview
//
// A network maps a batch of inputs and a weight vector to outputs and to
// the gradients of those outputs:
//   - Forward: (batch, NumInputs) → (batch, *OutputShape)
//   - Backward: → (batch, *OutputShape, NumInputs), (batch, *OutputShape, NumWeights)
//
// OpflowQNN builds such a network from an opflow expression.
//
// # Basic Usage
//
//	x := circuit.NewParameter("x")
//	w := circuit.NewParameter("w")
//	z, _ := opflow.Pauli("Z", 1)
//	op, _ := opflow.NewExpectation(z, circuit.New(1).RY(circuit.Param(x), 0).RY(circuit.Param(w), 0))
//
//	net, _ := qnn.NewOpflowQNN(op, qnn.Config{
//	    InputParams:  []*circuit.Parameter{x},
//	    WeightParams: []*circuit.Parameter{w},
//	    Backend:      sim.NewStatevector(),
//	})
//	out, _ := net.Forward(input, weights)
//	inGrad, wGrad, _ := net.Backward(input, weights)
package qnn

import (
	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/qnn"
)

// NeuralNetwork is the interface of every quantum neural network.
type NeuralNetwork = qnn.NeuralNetwork

// OpflowQNN is a network backed by an opflow expression.
type OpflowQNN = qnn.OpflowQNN

// Config configures an OpflowQNN.
type Config = qnn.Config

// Errors.
var (
	ErrShapeMismatch        = qnn.ErrShapeMismatch
	ErrInconsistentShape    = qnn.ErrInconsistentShape
	ErrDuplicateParameter   = qnn.ErrDuplicateParameter
	ErrConflictingExecution = qnn.ErrConflictingExecution
)

// NewOpflowQNN creates a network from op.
func NewOpflowQNN(op *opflow.Expr, cfg Config) (*OpflowQNN, error) {
	return qnn.NewOpflowQNN(op, cfg)
}
