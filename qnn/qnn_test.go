// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package qnn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/qnn/backend/sim"
	"github.com/born-ml/qnn/circuit"
	"github.com/born-ml/qnn/opflow"
	"github.com/born-ml/qnn/qnn"
	"github.com/born-ml/qnn/tensor"
)

// TestPublicAPI builds and runs a network through the public packages only.
func TestPublicAPI(t *testing.T) {
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	z, err := opflow.Pauli("Z", 1)
	require.NoError(t, err)
	op, err := opflow.NewExpectation(z, circuit.New(1).RY(circuit.Param(x), 0).RY(circuit.Param(w), 0))
	require.NoError(t, err)

	net, err := qnn.NewOpflowQNN(op, qnn.Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
		Backend:      sim.NewStatevector(),
	})
	require.NoError(t, err)
	var _ qnn.NeuralNetwork = net

	input, err := tensor.FromSlice([]float64{0.1, 0.6}, tensor.Shape{2, 1})
	require.NoError(t, err)
	weights, err := tensor.FromSlice([]float64{0.3}, tensor.Shape{1})
	require.NoError(t, err)

	out, err := net.Forward(input, weights)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Cos(0.4), math.Cos(0.9)}, out.Data(), 1e-12)

	inGrad, wGrad, err := net.Backward(input, weights)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 1}, inGrad.Shape())
	assert.InDeltaSlice(t, inGrad.Data(), wGrad.Data(), 1e-12)
}
