// Package backend defines the execution side of quantum neural networks:
// the Backend interface implemented by simulators and devices, and the
// ExecutionContext that pairs a backend with its run options.
package backend

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/circuit"
)

// ErrNoCounts is returned when probabilities are requested from an empty result.
var ErrNoCounts = errors.New("result holds neither a statevector nor counts")

// Backend executes bound circuits.
//
// Implementations must be safe for concurrent Run calls: the sampler may
// evaluate batch rows in parallel.
type Backend interface {
	// Name identifies the backend (e.g., "statevector_simulator").
	Name() string

	// Provider identifies who supplies the backend. The in-process
	// simulators report sim.ProviderName.
	Provider() string

	// Statevector reports whether Run returns amplitudes rather than counts.
	Statevector() bool

	// Run executes a fully bound circuit.
	Run(c *circuit.Circuit, opts RunOptions) (*Result, error)
}

// RunOptions are per-execution settings.
type RunOptions struct {
	Shots int    // Measurement shots; ignored by statevector backends.
	Seed  uint64 // Seed for shot sampling.
}

// Result is the outcome of one circuit execution.
type Result struct {
	NumQubits   int
	Statevector []complex128   // Set by statevector backends.
	Counts      map[uint64]int // Set by shot backends; keys are basis indices.
	Shots       int
}

// Probabilities returns the measurement distribution over basis indices.
func (r *Result) Probabilities() (map[uint64]float64, error) {
	switch {
	case r.Statevector != nil:
		probs := make(map[uint64]float64, len(r.Statevector))
		for i, amp := range r.Statevector {
			if p := real(amp)*real(amp) + imag(amp)*imag(amp); p > 0 {
				probs[uint64(i)] = p
			}
		}
		return probs, nil
	case r.Counts != nil && r.Shots > 0:
		probs := make(map[uint64]float64, len(r.Counts))
		for k, n := range r.Counts {
			probs[k] = float64(n) / float64(r.Shots)
		}
		return probs, nil
	default:
		return nil, ErrNoCounts
	}
}
