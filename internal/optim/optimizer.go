// Package optim implements optimization algorithms for training quantum
// neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers update a flat weight vector in place. The vector's layout is
// the network's weight order, the same layout as the last axis of a weight
// gradient.
//
// Example usage:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.05})
//
//	for epoch := range epochs {
//	    _, wGrad, _ := net.Backward(x, w)
//	    grads := reduce(wGrad, lossGrad) // dLoss/dw, one value per weight
//	    optimizer.Step(w.Data(), grads)
//	}
package optim

import "github.com/pkg/errors"

// ErrLengthMismatch is returned when weights and gradients differ in length.
var ErrLengthMismatch = errors.New("weights and gradients differ in length")

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to the weights
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies one update to weights in place.
	//
	// grads[i] is dLoss/dweights[i].
	Step(weights, grads []float64) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

func checkLengths(weights, grads []float64) error {
	if len(weights) != len(grads) {
		return errors.Wrapf(ErrLengthMismatch, "%d weights, %d gradients", len(weights), len(grads))
	}
	return nil
}
