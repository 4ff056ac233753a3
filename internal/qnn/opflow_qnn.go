package qnn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/tensor"
)

// Config configures an OpflowQNN.
type Config struct {
	// InputParams are bound to the input columns, in order.
	InputParams []*circuit.Parameter

	// WeightParams are bound to the weight vector, in order.
	WeightParams []*circuit.Parameter

	// Expectation converts the operator for the forward pass (optional).
	Expectation opflow.Converter

	// Gradient builds the backward operator (default: opflow.NewGradient()).
	Gradient opflow.GradientConverter

	// Execution runs circuits on a backend (optional). Without it, operators
	// are bound and evaluated directly on the exact simulator.
	Execution *backend.ExecutionContext

	// Backend is a raw backend handle, wrapped with backend.FromBackend.
	// Mutually exclusive with Execution.
	Backend backend.Backend
}

// OpflowQNN is a neural network whose output is an opflow operator
// evaluated at (input, weight) parameter values.
//
// The operator, its forward and gradient expressions and the samplers are
// fixed at construction. An OpflowQNN with an execution context is not safe
// for concurrent Forward/Backward calls: its samplers own caches.
//
// Example:
//
//	x := circuit.NewParameter("x")
//	z, _ := opflow.Pauli("Z", 1)
//	op, _ := opflow.NewExpectation(z, circuit.New(1).RY(circuit.Param(x), 0))
//	net, _ := qnn.NewOpflowQNN(op, qnn.Config{InputParams: []*circuit.Parameter{x}})
//	in, _ := tensor.FromSlice([]float64{0, math.Pi / 2}, tensor.Shape{2, 1})
//	out, _ := net.Forward(in, nil) // [[1] [0]]
type OpflowQNN struct {
	network

	operator     *opflow.Expr
	inputParams  []*circuit.Parameter
	weightParams []*circuit.Parameter
	expectation  opflow.Converter
	gradient     opflow.GradientConverter

	forwardOperator  *opflow.Expr
	gradientOperator *opflow.Expr

	execution       *backend.ExecutionContext
	circuitSampler  *opflow.Sampler
	gradientSampler *opflow.Sampler
}

// NewOpflowQNN creates a network from op.
//
// Returns ErrInconsistentShape when a list inside op has children of
// different output shapes.
func NewOpflowQNN(op *opflow.Expr, cfg Config) (*OpflowQNN, error) {
	q := &OpflowQNN{
		operator:     op,
		inputParams:  append([]*circuit.Parameter(nil), cfg.InputParams...),
		weightParams: append([]*circuit.Parameter(nil), cfg.WeightParams...),
		expectation:  cfg.Expectation,
		gradient:     cfg.Gradient,
	}
	if q.gradient == nil {
		q.gradient = opflow.NewGradient()
	}
	if err := checkPartition(q.inputParams, q.weightParams); err != nil {
		return nil, err
	}

	execution := cfg.Execution
	switch {
	case execution != nil && cfg.Backend != nil:
		return nil, ErrConflictingExecution
	case cfg.Backend != nil:
		execution = backend.FromBackend(cfg.Backend)
	}
	if execution != nil {
		q.execution = execution
		// Two independent samplers: forward and backward expressions must
		// not evict each other's compiled circuits.
		q.circuitSampler = opflow.NewSampler(execution)
		q.gradientSampler = opflow.NewSampler(execution)
	}

	q.forwardOperator = op
	if q.expectation != nil {
		fwd, err := q.expectation.Convert(op)
		if err != nil {
			return nil, errors.Wrap(err, "converting forward operator")
		}
		q.forwardOperator = fwd
	}

	params := make([]*circuit.Parameter, 0, len(q.inputParams)+len(q.weightParams))
	params = append(params, q.inputParams...)
	params = append(params, q.weightParams...)
	grad, err := q.gradient.Convert(op, params)
	if err != nil {
		return nil, errors.Wrap(err, "converting gradient operator")
	}
	q.gradientOperator = grad

	outputShape, err := outputShapeOf(op)
	if err != nil {
		return nil, err
	}
	q.network = newNetwork(len(q.inputParams), len(q.weightParams), outputShape)
	return q, nil
}

func checkPartition(inputs, weights []*circuit.Parameter) error {
	isInput := make(map[*circuit.Parameter]bool, len(inputs))
	for _, p := range inputs {
		if isInput[p] {
			return errors.Wrapf(ErrDuplicateParameter, "input %s listed twice", p)
		}
		isInput[p] = true
	}
	isWeight := make(map[*circuit.Parameter]bool, len(weights))
	for _, p := range weights {
		switch {
		case isInput[p]:
			return errors.Wrapf(ErrDuplicateParameter, "%s listed as both input and weight", p)
		case isWeight[p]:
			return errors.Wrapf(ErrDuplicateParameter, "weight %s listed twice", p)
		}
		isWeight[p] = true
	}
	return nil
}

// Operator returns the operator the network was built from.
func (q *OpflowQNN) Operator() *opflow.Expr { return q.operator }

// ForwardOperator returns the operator evaluated by Forward.
func (q *OpflowQNN) ForwardOperator() *opflow.Expr { return q.forwardOperator }

// GradientOperator returns the operator evaluated by Backward.
func (q *OpflowQNN) GradientOperator() *opflow.Expr { return q.gradientOperator }

// InputParams returns the input parameters in column order.
func (q *OpflowQNN) InputParams() []*circuit.Parameter {
	return append([]*circuit.Parameter(nil), q.inputParams...)
}

// WeightParams returns the weight parameters in weight order.
func (q *OpflowQNN) WeightParams() []*circuit.Parameter {
	return append([]*circuit.Parameter(nil), q.weightParams...)
}

// ExecutionContext returns the execution context, or nil.
func (q *OpflowQNN) ExecutionContext() *backend.ExecutionContext { return q.execution }

// batchValues binds input column i to the i-th input parameter and repeats
// every weight once per row.
func (q *OpflowQNN) batchValues(input *tensor.Tensor[float64], weights []float64) (*circuit.Batch, error) {
	rows := input.Shape()[0]
	b := circuit.NewBatch(rows)
	for i, p := range q.inputParams {
		if err := b.Set(p, input.Column(i)); err != nil {
			return nil, err
		}
	}
	for i, p := range q.weightParams {
		vals := make([]float64, rows)
		for r := range vals {
			vals[r] = weights[i]
		}
		if err := b.Set(p, vals); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// rowValues binds one input row and the weights.
func (q *OpflowQNN) rowValues(input *tensor.Tensor[float64], row int, weights []float64) circuit.Values {
	values := make(circuit.Values, len(q.inputParams)+len(q.weightParams))
	for j, p := range q.inputParams {
		values[p] = input.At(row, j)
	}
	for j, p := range q.weightParams {
		values[p] = weights[j]
	}
	return values
}

// Forward evaluates the forward operator on every batch row.
func (q *OpflowQNN) Forward(input, weights *tensor.Tensor[float64]) (*tensor.Tensor[float64], error) {
	x, w, err := q.validate(input, weights)
	if err != nil {
		return nil, err
	}
	batch, err := q.batchValues(x, w)
	if err != nil {
		return nil, err
	}

	var op *opflow.Expr
	if q.circuitSampler != nil {
		if op, err = q.circuitSampler.Convert(q.forwardOperator, batch); err != nil {
			return nil, err
		}
	} else {
		op = q.forwardOperator.BindBatch(batch)
	}
	result, err := op.Eval()
	if err != nil {
		return nil, err
	}
	return tensor.Real(result).Reshape(q.outputShape.Prepend(batch.Size())...)
}

// Backward evaluates the gradient operator for all rows in one sampler call.
//
// Gradient columns follow the parameter order InputParams then WeightParams.
func (q *OpflowQNN) Backward(input, weights *tensor.Tensor[float64]) (*tensor.Tensor[float64], *tensor.Tensor[float64], error) {
	x, w, err := q.validate(input, weights)
	if err != nil {
		return nil, nil, err
	}
	rows := x.Shape()[0]
	if q.numInputs+q.numWeights == 0 {
		return q.splitGradient(tensor.Zeros[float64](tensor.Shape{rows, 0}), rows)
	}
	batch, err := q.batchValues(x, w)
	if err != nil {
		return nil, nil, err
	}

	var grad *opflow.Expr
	if q.gradientSampler != nil {
		converted, err := q.gradientSampler.Convert(q.gradientOperator, batch)
		if err != nil {
			return nil, nil, err
		}
		// The sampler is only guaranteed to bind the parameters of the
		// circuits it runs; bind every row again before evaluating.
		if grad, err = converted.BindRows(batch); err != nil {
			return nil, nil, err
		}
	} else {
		grad = q.gradientOperator.BindBatch(batch)
	}
	result, err := grad.Eval()
	if err != nil {
		return nil, nil, err
	}
	return q.splitGradient(tensor.Real(result), rows)
}

// BackwardRows evaluates the gradient operator one batch row at a time.
//
// It is the reference implementation of Backward and agrees with it within
// floating-point tolerance on exact backends.
func (q *OpflowQNN) BackwardRows(input, weights *tensor.Tensor[float64]) (*tensor.Tensor[float64], *tensor.Tensor[float64], error) {
	x, w, err := q.validate(input, weights)
	if err != nil {
		return nil, nil, err
	}
	rows := x.Shape()[0]
	width := q.outputShape.NumElements() * (q.numInputs + q.numWeights)
	all := tensor.Zeros[float64](tensor.Shape{rows, width})
	if width == 0 {
		return q.splitGradient(all, rows)
	}

	for row := range rows {
		values := q.rowValues(x, row, w)
		var grad *opflow.Expr
		if q.gradientSampler != nil {
			converted, err := q.gradientSampler.ConvertValues(q.gradientOperator, values)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "batch row %d", row)
			}
			// Same two-step protocol as Backward: convert, then bind.
			grad = converted.Bind(values)
		} else {
			grad = q.gradientOperator.Bind(values)
		}
		result, err := grad.Eval()
		if err != nil {
			return nil, nil, errors.Wrapf(err, "batch row %d", row)
		}
		flat := tensor.Real(result).Data()
		if len(flat) != width {
			return nil, nil, errors.Wrapf(ErrShapeMismatch, "gradient of row %d has %d values, want %d", row, len(flat), width)
		}
		copy(all.Data()[row*width:(row+1)*width], flat)
	}
	return q.splitGradient(all, rows)
}

// splitGradient reshapes a flat (rows, prod(OutputShape)·P) gradient into
// (rows, *OutputShape, P) and splits P into inputs first, weights second.
func (q *OpflowQNN) splitGradient(flat *tensor.Tensor[float64], rows int) (*tensor.Tensor[float64], *tensor.Tensor[float64], error) {
	full, err := flat.Reshape(q.outputShape.Prepend(rows).Append(q.numInputs + q.numWeights)...)
	if err != nil {
		return nil, nil, err
	}
	return tensor.SplitLast(full, q.numInputs)
}

func (q *OpflowQNN) validate(input, weights *tensor.Tensor[float64]) (*tensor.Tensor[float64], []float64, error) {
	x, err := q.validateInput(input)
	if err != nil {
		return nil, nil, err
	}
	w, err := q.validateWeights(weights)
	if err != nil {
		return nil, nil, err
	}
	return x, w, nil
}

var _ NeuralNetwork = (*OpflowQNN)(nil)
