package qnn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/backend/sim"
	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/tensor"
)

// expectation returns ⟨label⟩ on the single-qubit state RY(angle)|0⟩.
func expectation(t *testing.T, label string, angle circuit.Expression) *opflow.Expr {
	t.Helper()
	obs, err := opflow.Pauli(label, 1)
	require.NoError(t, err)
	e, err := opflow.NewExpectation(obs, circuit.New(1).RY(angle, 0))
	require.NoError(t, err)
	return e
}

func column(t *testing.T, vals ...float64) *tensor.Tensor[float64] {
	t.Helper()
	x, err := tensor.FromSlice(vals, tensor.Shape{len(vals), 1})
	require.NoError(t, err)
	return x
}

func vector(t *testing.T, vals ...float64) *tensor.Tensor[float64] {
	t.Helper()
	x, err := tensor.FromSlice(vals, tensor.Shape{len(vals)})
	require.NoError(t, err)
	return x
}

// sumAngle is ⟨Z⟩ on RY(x+w)|0⟩ = cos(x+w).
func sumAngle(t *testing.T) (*opflow.Expr, *circuit.Parameter, *circuit.Parameter) {
	t.Helper()
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	return expectation(t, "Z", circuit.Param(x).Add(circuit.Param(w))), x, w
}

func TestOpflowQNN_CosineExample(t *testing.T) {
	x := circuit.NewParameter("x")
	net, err := NewOpflowQNN(expectation(t, "Z", circuit.Param(x)), Config{
		InputParams: []*circuit.Parameter{x},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, net.NumInputs())
	assert.Equal(t, 0, net.NumWeights())
	assert.Equal(t, tensor.Shape{1}, net.OutputShape())

	out, err := net.Forward(column(t, 0, math.Pi/2), nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1}, out.Shape())
	assert.InDeltaSlice(t, []float64{1, 0}, out.Data(), 1e-12)

	inGrad, wGrad, err := net.Backward(column(t, 0, math.Pi/2), nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1, 1}, inGrad.Shape())
	assert.Equal(t, tensor.Shape{2, 1, 0}, wGrad.Shape())
	assert.InDeltaSlice(t, []float64{0, -1}, inGrad.Data(), 1e-12)
}

func TestOpflowQNN_WeightsBroadcastOverRows(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)

	inputs := []float64{0.1, 0.7, 1.9}
	weight := 0.4
	out, err := net.Forward(column(t, inputs...), vector(t, weight))
	require.NoError(t, err)
	inGrad, wGrad, err := net.Backward(column(t, inputs...), vector(t, weight))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 1, 1}, inGrad.Shape())
	assert.Equal(t, tensor.Shape{3, 1, 1}, wGrad.Shape())

	for i, v := range inputs {
		assert.InDelta(t, math.Cos(v+weight), out.At(i, 0), 1e-12)
		assert.InDelta(t, -math.Sin(v+weight), inGrad.At(i, 0, 0), 1e-12)
		assert.InDelta(t, -math.Sin(v+weight), wGrad.At(i, 0, 0), 1e-12)
	}
}

func TestOpflowQNN_SingleRowInput(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)

	out, err := net.Forward(vector(t, 0.5), vector(t, 0.25))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1}, out.Shape())
	assert.InDelta(t, math.Cos(0.75), out.Item(), 1e-12)
}

func TestOpflowQNN_ParametrizedCoefficient(t *testing.T) {
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	// w·cos x
	op, err := expectation(t, "Z", circuit.Param(x)).WithCoeff(circuit.Param(w))
	require.NoError(t, err)

	for _, be := range []backend.Backend{nil, sim.NewStatevector()} {
		net, err := NewOpflowQNN(op, Config{
			InputParams:  []*circuit.Parameter{x},
			WeightParams: []*circuit.Parameter{w},
			Backend:      be,
		})
		require.NoError(t, err)

		inGrad, wGrad, err := net.Backward(column(t, 0.3, 1.2), vector(t, 2))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{-2 * math.Sin(0.3), -2 * math.Sin(1.2)}, inGrad.Data(), 1e-9)
		assert.InDeltaSlice(t, []float64{math.Cos(0.3), math.Cos(1.2)}, wGrad.Data(), 1e-9)
	}
}

func TestOpflowQNN_ListOutput(t *testing.T) {
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	angle := circuit.Param(x).Add(circuit.Param(w))
	op := opflow.NewList([]*opflow.Expr{
		expectation(t, "Z", angle),
		expectation(t, "X", angle),
	}, nil)

	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, net.OutputShape())

	out, err := net.Forward(column(t, 0.2, 0.9), vector(t, 0.1))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.InDelta(t, math.Cos(1.0), out.At(1, 0), 1e-12)
	assert.InDelta(t, math.Sin(1.0), out.At(1, 1), 1e-12)

	inGrad, wGrad, err := net.Backward(column(t, 0.2, 0.9), vector(t, 0.1))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2, 1}, inGrad.Shape())
	assert.Equal(t, tensor.Shape{2, 2, 1}, wGrad.Shape())
	assert.InDelta(t, -math.Sin(1.0), inGrad.At(1, 0, 0), 1e-12)
	assert.InDelta(t, math.Cos(1.0), wGrad.At(1, 1, 0), 1e-12)
}

func TestOpflowQNN_ComboOutputShape(t *testing.T) {
	x := circuit.NewParameter("x")
	op := opflow.NewList([]*opflow.Expr{
		expectation(t, "Z", circuit.Param(x)),
		expectation(t, "X", circuit.Param(x)),
	}, opflow.SumCombo)

	net, err := NewOpflowQNN(op, Config{InputParams: []*circuit.Parameter{x}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, net.OutputShape())

	out, err := net.Forward(column(t, 0.6), nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1}, out.Shape())
	assert.InDelta(t, math.Cos(0.6)+math.Sin(0.6), out.Item(), 1e-12)

	inGrad, _, err := net.Backward(column(t, 0.6), nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1}, inGrad.Shape())
	assert.InDelta(t, math.Cos(0.6)-math.Sin(0.6), inGrad.Item(), 1e-6)
}

func TestOpflowQNN_SummedIsScalar(t *testing.T) {
	x := circuit.NewParameter("x")
	op := opflow.NewSummed(expectation(t, "Z", circuit.Param(x)), expectation(t, "X", circuit.Param(x)))
	net, err := NewOpflowQNN(op, Config{InputParams: []*circuit.Parameter{x}})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1}, net.OutputShape())
}

func TestOpflowQNN_InconsistentShape(t *testing.T) {
	x := circuit.NewParameter("x")
	leaf := expectation(t, "Z", circuit.Param(x))
	op := opflow.NewList([]*opflow.Expr{
		leaf,
		opflow.NewList([]*opflow.Expr{leaf, leaf}, nil),
	}, nil)

	_, err := NewOpflowQNN(op, Config{InputParams: []*circuit.Parameter{x}})
	require.ErrorIs(t, err, ErrInconsistentShape)

	_, err = NewOpflowQNN(opflow.NewList(nil, nil), Config{})
	require.ErrorIs(t, err, ErrInconsistentShape)
}

func TestOpflowQNN_NoParameters(t *testing.T) {
	op := expectation(t, "Z", circuit.Constant(math.Pi))
	net, err := NewOpflowQNN(op, Config{})
	require.NoError(t, err)

	out, err := net.Forward(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1}, out.Shape())
	assert.InDelta(t, -1, out.Item(), 1e-12)

	for _, backward := range []func(_, _ *tensor.Tensor[float64]) (*tensor.Tensor[float64], *tensor.Tensor[float64], error){
		net.Backward, net.BackwardRows,
	} {
		inGrad, wGrad, err := backward(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{1, 1, 0}, inGrad.Shape())
		assert.Equal(t, tensor.Shape{1, 1, 0}, wGrad.Shape())
	}
}

func TestOpflowQNN_EmptyBatch(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
		Backend:      sim.NewStatevector(),
	})
	require.NoError(t, err)

	empty := tensor.Zeros[float64](tensor.Shape{0, 1})
	out, err := net.Forward(empty, vector(t, 0))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 1}, out.Shape())

	inGrad, wGrad, err := net.Backward(empty, vector(t, 0))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 1, 1}, inGrad.Shape())
	assert.Equal(t, tensor.Shape{0, 1, 1}, wGrad.Shape())
}

func TestOpflowQNN_BackwardRowsMatchesBatch(t *testing.T) {
	x := circuit.NewParameterVector("x", 2)
	w := circuit.NewParameterVector("w", 2)
	obs, err := opflow.Pauli("ZZ", 1)
	require.NoError(t, err)
	c := circuit.New(2).
		RY(circuit.Param(x[0]), 0).
		RY(circuit.Param(x[1]), 1).
		CX(0, 1).
		RX(circuit.Param(w[0]), 0).
		RY(circuit.Param(w[1]), 1)
	leaf, err := opflow.NewExpectation(obs, c)
	require.NoError(t, err)
	op := opflow.NewList([]*opflow.Expr{leaf, leaf.Scale(0.5)}, nil)

	input, err := tensor.FromSlice([]float64{0.1, 0.2, 0.5, -0.3, 1.4, 2.2}, tensor.Shape{3, 2})
	require.NoError(t, err)
	weights := vector(t, 0.7, -0.4)

	for _, be := range []backend.Backend{nil, sim.NewStatevector()} {
		net, err := NewOpflowQNN(op, Config{InputParams: x, WeightParams: w, Backend: be})
		require.NoError(t, err)

		batchIn, batchW, err := net.Backward(input, weights)
		require.NoError(t, err)
		rowIn, rowW, err := net.BackwardRows(input, weights)
		require.NoError(t, err)

		assert.Equal(t, tensor.Shape{3, 2, 2}, batchIn.Shape())
		assert.Equal(t, batchIn.Shape(), rowIn.Shape())
		assert.Equal(t, batchW.Shape(), rowW.Shape())
		assert.InDeltaSlice(t, batchIn.Data(), rowIn.Data(), 1e-12)
		assert.InDeltaSlice(t, batchW.Data(), rowW.Data(), 1e-12)
	}
}

func TestOpflowQNN_SamplerMatchesExact(t *testing.T) {
	op, x, w := sumAngle(t)
	params := Config{InputParams: []*circuit.Parameter{x}, WeightParams: []*circuit.Parameter{w}}
	exact, err := NewOpflowQNN(op, params)
	require.NoError(t, err)
	assert.Nil(t, exact.ExecutionContext())

	params.Execution = backend.FromBackend(sim.NewStatevector())
	sampled, err := NewOpflowQNN(op, params)
	require.NoError(t, err)
	require.NotNil(t, sampled.ExecutionContext())

	input := column(t, -1, 0, 0.5, 2)
	want, err := exact.Forward(input, vector(t, 0.3))
	require.NoError(t, err)
	for range 2 {
		got, err := sampled.Forward(input, vector(t, 0.3))
		require.NoError(t, err)
		assert.InDeltaSlice(t, want.Data(), got.Data(), 1e-12)
	}
}

func TestOpflowQNN_ShotBackend(t *testing.T) {
	op, x, w := sumAngle(t)
	newNet := func() *OpflowQNN {
		net, err := NewOpflowQNN(op, Config{
			InputParams:  []*circuit.Parameter{x},
			WeightParams: []*circuit.Parameter{w},
			Expectation:  opflow.PauliExpectation{},
			Execution:    backend.NewExecutionContext(sim.NewQasm(), backend.Config{Shots: 4000, Seed: 3}),
		})
		require.NoError(t, err)
		return net
	}

	input := column(t, 0, 0.8, 2.5)
	first, err := newNet().Forward(input, vector(t, 0.2))
	require.NoError(t, err)
	second, err := newNet().Forward(input, vector(t, 0.2))
	require.NoError(t, err)
	assert.Equal(t, first.Data(), second.Data())
	for i, v := range []float64{0, 0.8, 2.5} {
		assert.InDelta(t, math.Cos(v+0.2), first.At(i, 0), 0.1)
	}

	inGrad, _, err := newNet().Backward(input, vector(t, 0.2))
	require.NoError(t, err)
	for i, v := range []float64{0, 0.8, 2.5} {
		assert.InDelta(t, -math.Sin(v+0.2), inGrad.At(i, 0, 0), 0.15)
	}
}

func TestOpflowQNN_RebindAfterSamplerIsNoop(t *testing.T) {
	x := circuit.NewParameter("x")
	w := circuit.NewParameter("w")
	op, err := expectation(t, "Z", circuit.Param(x)).WithCoeff(circuit.Param(w))
	require.NoError(t, err)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
		Backend:      sim.NewStatevector(),
	})
	require.NoError(t, err)

	b := circuit.NewBatch(2)
	require.NoError(t, b.Set(x, []float64{0.4, 1.0}))
	require.NoError(t, b.Set(w, []float64{3, 3}))
	converted, err := opflow.NewSampler(net.ExecutionContext()).Convert(net.GradientOperator(), b)
	require.NoError(t, err)
	before, err := converted.Eval()
	require.NoError(t, err)

	rebound, err := converted.BindRows(b)
	require.NoError(t, err)
	after, err := rebound.Eval()
	require.NoError(t, err)
	assert.Equal(t, before.Data(), after.Data())
}

func TestNewOpflowQNN_Errors(t *testing.T) {
	op, x, w := sumAngle(t)

	_, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{x, w},
	})
	require.ErrorIs(t, err, ErrDuplicateParameter)
	assert.ErrorContains(t, err, "x listed as both input and weight")

	_, err = NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w, w},
	})
	require.ErrorIs(t, err, ErrDuplicateParameter)
	assert.ErrorContains(t, err, "weight w listed twice")

	_, err = NewOpflowQNN(op, Config{
		InputParams: []*circuit.Parameter{x, x},
	})
	require.ErrorIs(t, err, ErrDuplicateParameter)

	_, err = NewOpflowQNN(op, Config{
		InputParams: []*circuit.Parameter{x},
		Execution:   backend.FromBackend(sim.NewStatevector()),
		Backend:     sim.NewQasm(),
	})
	require.ErrorIs(t, err, ErrConflictingExecution)

	gradOp, err := opflow.NewGradient().Convert(op, []*circuit.Parameter{x})
	require.NoError(t, err)
	_, err = NewOpflowQNN(gradOp, Config{InputParams: []*circuit.Parameter{x}})
	require.ErrorIs(t, err, opflow.ErrNotDifferentiable)
}

func TestOpflowQNN_ShapeValidation(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)

	_, err = net.Forward(tensor.Zeros[float64](tensor.Shape{2, 3}), vector(t, 0))
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = net.Forward(column(t, 1), vector(t, 0, 1))
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = net.Forward(column(t, 1), nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, _, err = net.Backward(nil, vector(t, 0))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestOpflowQNN_Accessors(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
		Expectation:  opflow.MatrixExpectation{},
	})
	require.NoError(t, err)

	assert.Same(t, op, net.Operator())
	assert.True(t, net.ForwardOperator().IsExact())
	assert.Equal(t, opflow.KindGradient, net.GradientOperator().Kind())
	assert.Len(t, net.GradientOperator().Children(), 2)
	assert.Equal(t, []*circuit.Parameter{x}, net.InputParams())
	assert.Equal(t, []*circuit.Parameter{w}, net.WeightParams())

	var _ NeuralNetwork = net
}

func TestOpflowQNN_RepeatedCallsAreDeterministic(t *testing.T) {
	op, x, w := sumAngle(t)
	net, err := NewOpflowQNN(op, Config{
		InputParams:  []*circuit.Parameter{x},
		WeightParams: []*circuit.Parameter{w},
	})
	require.NoError(t, err)
	require.Nil(t, net.ExecutionContext())

	input, weights := column(t, 0.2, -1.1, 2.4), vector(t, 0.6)
	first, err := net.Forward(input, weights)
	require.NoError(t, err)
	second, err := net.Forward(input, weights)
	require.NoError(t, err)
	assert.Equal(t, first.Data(), second.Data())

	inA, wA, err := net.Backward(input, weights)
	require.NoError(t, err)
	inB, wB, err := net.Backward(input, weights)
	require.NoError(t, err)
	assert.Equal(t, inA.Data(), inB.Data())
	assert.Equal(t, wA.Data(), wB.Data())
}

func TestOutputShape_IndependentOfChildOrder(t *testing.T) {
	x := circuit.NewParameter("x")
	angle := circuit.Param(x)
	pair := func(a, b string) *opflow.Expr {
		return opflow.NewList([]*opflow.Expr{expectation(t, a, angle), expectation(t, b, angle)}, nil)
	}

	leaves := []*opflow.Expr{expectation(t, "Z", angle), expectation(t, "X", angle), expectation(t, "Y", angle)}
	reversed := []*opflow.Expr{leaves[2], leaves[1], leaves[0]}
	a, err := outputShapeOf(opflow.NewList(leaves, nil))
	require.NoError(t, err)
	b, err := outputShapeOf(opflow.NewList(reversed, nil))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3}, a)
	assert.Equal(t, a, b)

	nested, err := outputShapeOf(opflow.NewList([]*opflow.Expr{pair("Z", "X"), pair("X", "Y")}, nil))
	require.NoError(t, err)
	swapped, err := outputShapeOf(opflow.NewList([]*opflow.Expr{pair("X", "Y"), pair("Z", "X")}, nil))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, nested)
	assert.Equal(t, nested, swapped)
}
