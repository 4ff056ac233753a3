package sim

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Probabilities returns |amplitude|² per basis index.
func Probabilities(state []complex128) []float64 {
	probs := make([]float64, len(state))
	for i, a := range state {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

// SampleCounts draws shots measurements of every qubit in the computational basis.
//
// The same seed always produces the same counts.
func SampleCounts(state []complex128, shots int, seed uint64) map[uint64]int {
	probs := Probabilities(state)
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	total := cdf[len(cdf)-1]

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)) //nolint:gosec // Deterministic shot sampling
	counts := make(map[uint64]int)
	for range shots {
		u := rng.Float64() * total
		idx := sort.SearchFloat64s(cdf, u)
		// Skip zero-probability outcomes sharing the same cumulative value.
		for idx < len(cdf)-1 && probs[idx] == 0 {
			idx++
		}
		if idx >= len(cdf) {
			idx = len(cdf) - 1
		}
		counts[uint64(idx)]++ //nolint:gosec // idx is a non-negative basis index
	}
	return counts
}
