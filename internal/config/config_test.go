package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/optim"
	"github.com/born-ml/qnn/internal/tensor"
)

const rotationModel = `
qubits: 1
inputs: [x]
weights: [w]
initial_weights: [0.25]
circuit:
  - {gate: ry, qubits: [0], angle: {terms: {x: 1, w: 1}}}
observables:
  - terms: [{pauli: Z}]
`

func TestParse_Rotation(t *testing.T) {
	m, err := Parse([]byte(rotationModel))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Qubits)
	assert.Equal(t, []string{"x"}, m.Inputs)
	assert.Equal(t, map[string]float64{"x": 1, "w": 1}, m.Circuit[0].Angle.Terms)

	net, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, net.NumInputs())
	assert.Equal(t, 1, net.NumWeights())
	assert.Equal(t, tensor.Shape{1}, net.OutputShape())
	assert.Nil(t, net.ExecutionContext())

	w, err := m.WeightTensor()
	require.NoError(t, err)
	x, _ := tensor.FromSlice([]float64{0.5}, tensor.Shape{1, 1})
	out, err := net.Forward(x, w)
	require.NoError(t, err)
	assert.InDelta(t, math.Cos(0.75), out.Item(), 1e-12)
}

func TestLinear_Shorthands(t *testing.T) {
	m, err := Parse([]byte(`
qubits: 1
inputs: [x]
circuit:
  - {gate: rx, qubits: [0], angle: x}
  - {gate: rz, qubits: [0], angle: 1.5}
  - {gate: h, qubits: [0]}
observables:
  - terms: [{pauli: X, coeff: 0.5}, {pauli: Z, coeff: -1}, {pauli: Y, coeff: 0}, {pauli: Z}]
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"x": 1}, m.Circuit[0].Angle.Terms)
	assert.InDelta(t, 1.5, m.Circuit[1].Angle.Constant, 1e-15)
	assert.Empty(t, m.Circuit[1].Angle.Terms)
	assert.Nil(t, m.Circuit[2].Angle)
	terms := m.Observables[0].Terms
	require.Len(t, terms, 4)
	require.NotNil(t, terms[0].Coeff)
	assert.InDelta(t, 0.5, *terms[0].Coeff, 1e-15)
	require.NotNil(t, terms[1].Coeff)
	assert.InDelta(t, -1, *terms[1].Coeff, 1e-15)
	require.NotNil(t, terms[2].Coeff)
	assert.Zero(t, *terms[2].Coeff)
	assert.Nil(t, terms[3].Coeff)
}

func TestBuild_ListAndBackend(t *testing.T) {
	m, err := Parse([]byte(`
qubits: 2
inputs: [x]
weights: [w]
circuit:
  - {gate: ry, qubits: [0], angle: x}
  - {gate: cx, qubits: [0, 1]}
  - {gate: ry, qubits: [1], angle: w}
observables:
  - terms: [{pauli: ZI}]
  - terms: [{pauli: IZ}]
    coefficient: {constant: 2}
expectation: pauli
gradient: {method: finite_diff, epsilon: 1e-5}
backend: {name: statevector, seed: 3}
`))
	require.NoError(t, err)
	net, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, net.OutputShape())
	assert.Equal(t, opflow.KindList, net.Operator().Kind())
	require.NotNil(t, net.ExecutionContext())
	assert.Equal(t, int64(3), net.ExecutionContext().Config().Seed)

	x, _ := tensor.FromSlice([]float64{0.4}, tensor.Shape{1, 1})
	w, _ := tensor.FromSlice([]float64{0}, tensor.Shape{1})
	out, err := net.Forward(x, w)
	require.NoError(t, err)
	// Bell-like state: qubit 1 copies qubit 0, so ⟨Z1⟩ = ⟨Z0⟩ = cos x.
	assert.InDeltaSlice(t, []float64{math.Cos(0.4), 2 * math.Cos(0.4)}, out.Data(), 1e-9)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		model string
		field string
	}{
		{"unknown gate", "qubits: 1\ncircuit: [{gate: foo, qubits: [0]}]\nobservables: [{terms: [{pauli: Z}]}]", "circuit[0].gate"},
		{"missing angle", "qubits: 1\ncircuit: [{gate: ry, qubits: [0]}]\nobservables: [{terms: [{pauli: Z}]}]", "circuit[0].angle"},
		{"bad qubit", "qubits: 1\ncircuit: [{gate: h, qubits: [3]}]\nobservables: [{terms: [{pauli: Z}]}]", "circuit[0].qubits"},
		{"unknown parameter", "qubits: 1\ncircuit: [{gate: ry, qubits: [0], angle: y}]\nobservables: [{terms: [{pauli: Z}]}]", "circuit[0].angle"},
		{"duplicate parameter", "qubits: 1\ninputs: [x]\nweights: [x]\nobservables: [{terms: [{pauli: Z}]}]", "weights[0]"},
		{"no observables", "qubits: 1", "observables"},
		{"bad pauli", "qubits: 1\nobservables: [{terms: [{pauli: Q}]}]", "observables[0].terms[0].pauli"},
		{"pauli width", "qubits: 1\nobservables: [{terms: [{pauli: ZZ}]}]", "observables[0]"},
		{"bad backend", "qubits: 1\nobservables: [{terms: [{pauli: Z}]}]\nbackend: {name: gpu}", "backend.name"},
		{"bad expectation", "qubits: 1\nobservables: [{terms: [{pauli: Z}]}]\nexpectation: aer", "expectation"},
		{"bad gradient", "qubits: 1\nobservables: [{terms: [{pauli: Z}]}]\ngradient: {method: adjoint}", "gradient.method"},
		{"no qubits", "observables: [{terms: [{pauli: Z}]}]", "qubits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.model))
			require.NoError(t, err)
			_, err = m.Build()
			require.ErrorIs(t, err, ErrInvalidModel)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("qubits: 1\nqbits: 2\n"))
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rotationModel), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25}, m.InitialWeights)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWeightTensor(t *testing.T) {
	m := &Model{Weights: []string{"a", "b"}}
	w, err := m.WeightTensor()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, w.Data())

	m.InitialWeights = []float64{1}
	_, err = m.WeightTensor()
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestTraining(t *testing.T) {
	m, err := Parse([]byte(rotationModel + `
training:
  epochs: 40
  optimizer: sgd
  lr: 0.5
  data:
    inputs: [[0], [0.5], [1.0], [1.5]]
    targets: [[0.7648], [0.3624], [-0.1288], [-0.5885]]
`))
	require.NoError(t, err)
	net, err := m.Build()
	require.NoError(t, err)

	opt, err := m.Training.NewOptimizer()
	require.NoError(t, err)
	assert.IsType(t, &optim.SGD{}, opt)
	assert.Equal(t, 40, m.Training.TrainerConfig().Epochs)

	weights := append([]float64(nil), m.InitialWeights...)
	history, err := m.Fit(net, weights)
	require.NoError(t, err)
	assert.Len(t, history.Loss, 40)
	// Targets are cos(x + 0.7) rounded to four digits.
	assert.InDelta(t, 0.7, weights[0], 1e-2)
}

func TestTraining_Errors(t *testing.T) {
	m, err := Parse([]byte(rotationModel))
	require.NoError(t, err)
	net, err := m.Build()
	require.NoError(t, err)
	_, err = m.Fit(net, []float64{0})
	require.ErrorIs(t, err, ErrInvalidModel)

	_, err = (&Training{Optimizer: "lbfgs"}).NewOptimizer()
	require.ErrorIs(t, err, ErrInvalidModel)

	_, _, err = TrainData{Inputs: [][]float64{{1}, {2, 3}}, Targets: [][]float64{{1}, {2}}}.Tensors()
	require.ErrorIs(t, err, ErrInvalidModel)
	_, _, err = TrainData{Inputs: [][]float64{{1}}}.Tensors()
	require.ErrorIs(t, err, ErrInvalidModel)
}
