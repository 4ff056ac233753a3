package optim

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	w = w - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	w = w - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.1,
//	    Momentum: 0.9,
//	})
//	err := optimizer.Step(weights, grads)
type SGD struct {
	lr       float64
	momentum float64
	velocity []float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:       config.LR,
		momentum: config.Momentum,
	}
}

// Step performs a single optimization step.
//
// The velocity buffer is sized on the first call; later calls must pass
// the same number of weights.
func (s *SGD) Step(weights, grads []float64) error {
	if err := checkLengths(weights, grads); err != nil {
		return err
	}
	if s.momentum == 0 {
		for i, g := range grads {
			weights[i] -= s.lr * g
		}
		return nil
	}

	if s.velocity == nil {
		s.velocity = make([]float64, len(weights))
	}
	if err := checkLengths(weights, s.velocity); err != nil {
		return err
	}
	for i, g := range grads {
		s.velocity[i] = s.momentum*s.velocity[i] + g
		weights[i] -= s.lr * s.velocity[i]
	}
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
