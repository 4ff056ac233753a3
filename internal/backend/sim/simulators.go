package sim

import (
	"github.com/born-ml/qnn/internal/backend"
	"github.com/born-ml/qnn/internal/circuit"
)

// ProviderName is the provider reported by every in-process simulator.
const ProviderName = backend.AcceleratedProvider

// Statevector is an exact simulator returning final amplitudes.
type Statevector struct{}

// NewStatevector creates the exact statevector simulator.
func NewStatevector() *Statevector {
	return &Statevector{}
}

// Name returns the backend name.
func (*Statevector) Name() string { return "statevector_simulator" }

// Provider returns ProviderName.
func (*Statevector) Provider() string { return ProviderName }

// Statevector reports true.
func (*Statevector) Statevector() bool { return true }

// Run simulates a bound circuit.
func (*Statevector) Run(c *circuit.Circuit, _ backend.RunOptions) (*backend.Result, error) {
	state, err := Simulate(c)
	if err != nil {
		return nil, err
	}
	return &backend.Result{NumQubits: c.NumQubits(), Statevector: state}, nil
}

// Qasm is a shot-based simulator returning measurement counts.
type Qasm struct{}

// NewQasm creates the shot-based simulator.
func NewQasm() *Qasm {
	return &Qasm{}
}

// Name returns the backend name.
func (*Qasm) Name() string { return "qasm_simulator" }

// Provider returns ProviderName.
func (*Qasm) Provider() string { return ProviderName }

// Statevector reports false.
func (*Qasm) Statevector() bool { return false }

// Run simulates a bound circuit and samples opts.Shots measurements.
func (*Qasm) Run(c *circuit.Circuit, opts backend.RunOptions) (*backend.Result, error) {
	state, err := Simulate(c)
	if err != nil {
		return nil, err
	}
	return &backend.Result{
		NumQubits: c.NumQubits(),
		Counts:    SampleCounts(state, opts.Shots, opts.Seed),
		Shots:     opts.Shots,
	}, nil
}
