package train

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/optim"
	"github.com/born-ml/qnn/internal/qnn"
	"github.com/born-ml/qnn/internal/tensor"
)

func TestMSE(t *testing.T) {
	pred, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	target, _ := tensor.FromSlice([]float64{1, 0, 3, 5}, tensor.Shape{2, 2})

	loss, grad, err := MSE(pred, target)
	require.NoError(t, err)
	// (0 + 4 + 0 + 1) / 4
	assert.InDelta(t, 1.25, loss, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 1, 0, -0.5}, grad.Data(), 1e-12)

	_, _, err = MSE(pred, tensor.Zeros[float64](tensor.Shape{4}))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestChain(t *testing.T) {
	lossGrad, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2, 1})
	grad, _ := tensor.FromSlice([]float64{1, 10, 3, 30}, tensor.Shape{2, 1, 2})

	out, err := chain(lossGrad, grad)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{7, 70}, out, 1e-12)

	empty, err := chain(lossGrad, tensor.Zeros[float64](tensor.Shape{2, 1, 0}))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// rotation returns a network computing cos(x + w).
func rotation(t *testing.T) *qnn.OpflowQNN {
	t.Helper()
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	obs, err := opflow.Pauli("Z", 1)
	require.NoError(t, err)
	op, err := opflow.NewExpectation(obs, circuit.New(1).RY(circuit.Param(x).Add(circuit.Param(w)), 0))
	require.NoError(t, err)
	net, err := qnn.NewOpflowQNN(op, qnn.Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)
	return net
}

func TestTrainer_FitsPhase(t *testing.T) {
	const phase = 0.7
	inputs := []float64{-1, -0.5, 0, 0.5, 1, 1.5}
	targets := make([]float64, len(inputs))
	for i, v := range inputs {
		targets[i] = math.Cos(v + phase)
	}
	x, _ := tensor.FromSlice(inputs, tensor.Shape{len(inputs), 1})
	y, _ := tensor.FromSlice(targets, tensor.Shape{len(inputs), 1})

	var logs bytes.Buffer
	trainer := New(rotation(t), optim.NewSGD(optim.SGDConfig{LR: 0.5}), Config{
		Epochs:    60,
		BatchSize: 3,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})
	weights := []float64{0}
	history, err := trainer.Fit(x, y, weights)
	require.NoError(t, err)

	require.Len(t, history.Loss, 60)
	assert.Less(t, history.Final(), history.Loss[0])
	assert.InDelta(t, phase, weights[0], 1e-2)
	assert.Contains(t, logs.String(), "epoch complete")
}

func TestTrainer_Errors(t *testing.T) {
	net := rotation(t)
	trainer := New(net, optim.NewAdam(optim.AdamConfig{}), Config{Epochs: 1})
	x := tensor.Zeros[float64](tensor.Shape{2, 1})

	_, err := trainer.Fit(x, tensor.Zeros[float64](tensor.Shape{2, 1}), nil)
	require.ErrorIs(t, err, qnn.ErrShapeMismatch)

	_, err = trainer.Fit(x, tensor.Zeros[float64](tensor.Shape{3, 1}), []float64{0})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = trainer.Fit(x, tensor.Zeros[float64](tensor.Shape{2, 2}), []float64{0})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDefaultConfig(t *testing.T) {
	trainer := New(rotation(t), optim.NewSGD(optim.SGDConfig{}), Config{})
	assert.Equal(t, 10, trainer.config.Epochs)
	assert.NotNil(t, trainer.config.Logger)
	assert.Equal(t, 0.0, History{}.Final())
}
