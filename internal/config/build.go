package config

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/backend/sim"
	"github.com/born-ml/qnn/internal/circuit"
	"github.com/born-ml/qnn/internal/opflow"
	"github.com/born-ml/qnn/internal/qnn"
	"github.com/born-ml/qnn/internal/tensor"
)

// Build validates the model and constructs its network.
func (m *Model) Build() (*qnn.OpflowQNN, error) {
	params, err := m.parameters()
	if err != nil {
		return nil, err
	}
	op, err := m.operator(params)
	if err != nil {
		return nil, err
	}

	cfg := qnn.Config{
		InputParams:  lookup(params, m.Inputs),
		WeightParams: lookup(params, m.Weights),
	}
	if cfg.Expectation, err = m.expectation(); err != nil {
		return nil, err
	}
	if cfg.Gradient, err = m.gradient(); err != nil {
		return nil, err
	}
	if cfg.Execution, err = m.execution(); err != nil {
		return nil, err
	}
	return qnn.NewOpflowQNN(op, cfg)
}

// WeightTensor returns the initial weights, zeros when none are given.
func (m *Model) WeightTensor() (*tensor.Tensor[float64], error) {
	if m.InitialWeights == nil {
		return tensor.Zeros[float64](tensor.Shape{len(m.Weights)}), nil
	}
	if len(m.InitialWeights) != len(m.Weights) {
		return nil, errors.Wrapf(ErrInvalidModel, "initial_weights: %d values for %d weights", len(m.InitialWeights), len(m.Weights))
	}
	return tensor.FromSlice(m.InitialWeights, tensor.Shape{len(m.Weights)})
}

func (m *Model) parameters() (map[string]*circuit.Parameter, error) {
	params := make(map[string]*circuit.Parameter, len(m.Inputs)+len(m.Weights))
	declare := func(field string, names []string) error {
		for i, name := range names {
			if name == "" {
				return errors.Wrapf(ErrInvalidModel, "%s[%d]: empty name", field, i)
			}
			if _, dup := params[name]; dup {
				return errors.Wrapf(ErrInvalidModel, "%s[%d]: parameter %q declared twice", field, i, name)
			}
			params[name] = circuit.NewParameter(name)
		}
		return nil
	}
	if err := declare("inputs", m.Inputs); err != nil {
		return nil, err
	}
	if err := declare("weights", m.Weights); err != nil {
		return nil, err
	}
	return params, nil
}

func lookup(params map[string]*circuit.Parameter, names []string) []*circuit.Parameter {
	out := make([]*circuit.Parameter, len(names))
	for i, name := range names {
		out[i] = params[name]
	}
	return out
}

func (l *Linear) expression(field string, params map[string]*circuit.Parameter) (circuit.Expression, error) {
	e := circuit.Constant(l.Constant)
	for name, a := range l.Terms {
		p, ok := params[name]
		if !ok {
			return circuit.Expression{}, errors.Wrapf(ErrInvalidModel, "%s: unknown parameter %q", field, name)
		}
		e = e.Add(circuit.Linear(p, a, 0))
	}
	return e, nil
}

func (m *Model) circuit(params map[string]*circuit.Parameter) (*circuit.Circuit, error) {
	if m.Qubits <= 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "qubits: need at least one, got %d", m.Qubits)
	}
	c := circuit.New(m.Qubits)
	for i, g := range m.Circuit {
		field := "circuit[" + strconv.Itoa(i) + "]"
		kind, ok := circuit.ParseGateKind(g.Gate)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidModel, "%s.gate: unknown gate %q", field, g.Gate)
		}
		if len(g.Qubits) != kind.NumQubits() {
			return nil, errors.Wrapf(ErrInvalidModel, "%s.qubits: %s acts on %d qubits, got %v", field, kind, kind.NumQubits(), g.Qubits)
		}
		for _, q := range g.Qubits {
			if q < 0 || q >= m.Qubits {
				return nil, errors.Wrapf(ErrInvalidModel, "%s.qubits: qubit %d out of range", field, q)
			}
		}
		if len(g.Qubits) == 2 && g.Qubits[0] == g.Qubits[1] {
			return nil, errors.Wrapf(ErrInvalidModel, "%s.qubits: control equals target", field)
		}

		gate := circuit.Gate{Kind: kind, Qubits: g.Qubits}
		switch {
		case kind.Parametrized() && g.Angle == nil:
			return nil, errors.Wrapf(ErrInvalidModel, "%s.angle: %s needs an angle", field, kind)
		case !kind.Parametrized() && g.Angle != nil:
			return nil, errors.Wrapf(ErrInvalidModel, "%s.angle: %s takes no angle", field, kind)
		case g.Angle != nil:
			angle, err := g.Angle.expression(field+".angle", params)
			if err != nil {
				return nil, err
			}
			gate.Angle = angle
		}
		c.Append(gate)
	}
	return c, nil
}

func (m *Model) operator(params map[string]*circuit.Parameter) (*opflow.Expr, error) {
	c, err := m.circuit(params)
	if err != nil {
		return nil, err
	}
	if len(m.Observables) == 0 {
		return nil, errors.Wrap(ErrInvalidModel, "observables: at least one is required")
	}

	leaves := make([]*opflow.Expr, len(m.Observables))
	for i, o := range m.Observables {
		field := "observables[" + strconv.Itoa(i) + "]"
		if len(o.Terms) == 0 {
			return nil, errors.Wrapf(ErrInvalidModel, "%s.terms: at least one is required", field)
		}
		terms := make([]opflow.Observable, len(o.Terms))
		for j, t := range o.Terms {
			coeff := 1.0
			if t.Coeff != nil {
				coeff = *t.Coeff
			}
			if terms[j], err = opflow.Pauli(t.Pauli, complex(coeff, 0)); err != nil {
				return nil, errors.Wrapf(ErrInvalidModel, "%s.terms[%d].pauli: %v", field, j, err)
			}
		}
		obs, err := opflow.Sum(terms...)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidModel, "%s: %v", field, err)
		}
		leaf, err := opflow.NewExpectation(obs, c)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidModel, "%s: %v", field, err)
		}
		if o.Coefficient != nil {
			coeff, err := o.Coefficient.expression(field+".coefficient", params)
			if err != nil {
				return nil, err
			}
			if leaf, err = leaf.WithCoeff(coeff); err != nil {
				return nil, errors.Wrapf(err, "%s.coefficient", field)
			}
		}
		leaves[i] = leaf
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	return opflow.NewList(leaves, nil), nil
}

func (m *Model) expectation() (opflow.Converter, error) {
	switch m.Expectation {
	case "", "none":
		return nil, nil
	case "pauli":
		return opflow.PauliExpectation{}, nil
	case "matrix":
		return opflow.MatrixExpectation{}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidModel, "expectation: unknown converter %q", m.Expectation)
	}
}

func (m *Model) gradient() (opflow.GradientConverter, error) {
	g := opflow.NewGradient()
	switch m.Gradient.Method {
	case "", "param_shift":
	case "finite_diff":
		g.Method = opflow.FiniteDiff
		g.Epsilon = m.Gradient.Epsilon
	default:
		return nil, errors.Wrapf(ErrInvalidModel, "gradient.method: unknown method %q", m.Gradient.Method)
	}
	if m.Gradient.Epsilon < 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "gradient.epsilon: must be positive, got %g", m.Gradient.Epsilon)
	}
	return g, nil
}

func (m *Model) execution() (*backend.ExecutionContext, error) {
	var b backend.Backend
	switch m.Backend.Name {
	case "", "none":
		return nil, nil
	case "statevector":
		b = sim.NewStatevector()
	case "qasm":
		b = sim.NewQasm()
	default:
		return nil, errors.Wrapf(ErrInvalidModel, "backend.name: unknown backend %q", m.Backend.Name)
	}
	if m.Backend.Shots < 0 {
		return nil, errors.Wrapf(ErrInvalidModel, "backend.shots: must be positive, got %d", m.Backend.Shots)
	}
	cfg := backend.DefaultConfig()
	if m.Backend.Shots > 0 {
		cfg.Shots = m.Backend.Shots
	}
	if m.Backend.Seed != nil {
		cfg.Seed = *m.Backend.Seed
	}
	if m.Logger != nil {
		cfg.Logger = m.Logger
	}
	return backend.NewExecutionContext(b, cfg), nil
}
