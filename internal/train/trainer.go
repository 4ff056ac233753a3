// Package train fits the weights of a quantum neural network to labelled
// data by mini-batch gradient descent on the mean squared error.
package train

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/optim"
	"github.com/born-ml/qnn/internal/qnn"
	"github.com/born-ml/qnn/internal/tensor"
)

// Config holds training options.
type Config struct {
	Epochs    int          // Passes over the data (default: 10)
	BatchSize int          // Rows per optimizer step; 0 = whole data set
	Logger    *slog.Logger // Per-epoch loss records (default: slog.Default())
}

// DefaultConfig returns sensible training defaults.
func DefaultConfig() Config {
	return Config{
		Epochs: 10,
		Logger: slog.Default(),
	}
}

// History records the mean training loss of every epoch.
type History struct {
	Loss []float64
}

// Final returns the loss of the last epoch, or 0 if none ran.
func (h History) Final() float64 {
	if len(h.Loss) == 0 {
		return 0
	}
	return h.Loss[len(h.Loss)-1]
}

// Trainer runs an optimizer against a network's weight gradients.
type Trainer struct {
	network   qnn.NeuralNetwork
	optimizer optim.Optimizer
	config    Config
}

// New creates a trainer. Zero-valued config fields fall back to DefaultConfig.
func New(network qnn.NeuralNetwork, optimizer optim.Optimizer, config Config) *Trainer {
	def := DefaultConfig()
	if config.Epochs <= 0 {
		config.Epochs = def.Epochs
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}
	return &Trainer{network: network, optimizer: optimizer, config: config}
}

// Fit updates weights in place to minimize MSE(Forward(x, weights), y).
//
// x has shape (n, NumInputs) and y has shape (n, *OutputShape).
func (t *Trainer) Fit(x, y *tensor.Tensor[float64], weights []float64) (History, error) {
	if len(weights) != t.network.NumWeights() {
		return History{}, errors.Wrapf(qnn.ErrShapeMismatch, "%d weights for a network with %d", len(weights), t.network.NumWeights())
	}
	if len(x.Shape()) == 0 || len(y.Shape()) == 0 || x.Shape()[0] != y.Shape()[0] {
		return History{}, errors.Wrapf(ErrShapeMismatch, "x %v, y %v", x.Shape(), y.Shape())
	}
	rows := x.Shape()[0]
	batchSize := t.config.BatchSize
	if batchSize <= 0 || batchSize > rows {
		batchSize = rows
	}

	history := History{Loss: make([]float64, 0, t.config.Epochs)}
	for epoch := range t.config.Epochs {
		var total float64
		for start := 0; start < rows; start += batchSize {
			end := min(start+batchSize, rows)
			loss, err := t.step(x, y, start, end, weights)
			if err != nil {
				return history, errors.Wrapf(err, "epoch %d, rows [%d, %d)", epoch, start, end)
			}
			total += loss * float64(end-start)
		}
		mean := 0.0
		if rows > 0 {
			mean = total / float64(rows)
		}
		history.Loss = append(history.Loss, mean)
		t.config.Logger.Info("epoch complete",
			slog.Int("epoch", epoch+1),
			slog.Int("epochs", t.config.Epochs),
			slog.Float64("loss", mean),
			slog.Float64("lr", t.optimizer.GetLR()))
	}
	return history, nil
}

func (t *Trainer) step(x, y *tensor.Tensor[float64], start, end int, weights []float64) (float64, error) {
	xb, err := x.Rows(start, end)
	if err != nil {
		return 0, err
	}
	yb, err := y.Rows(start, end)
	if err != nil {
		return 0, err
	}
	w, err := tensor.FromSlice(weights, tensor.Shape{len(weights)})
	if err != nil {
		return 0, err
	}

	pred, err := t.network.Forward(xb, w)
	if err != nil {
		return 0, err
	}
	loss, lossGrad, err := MSE(pred, yb)
	if err != nil {
		return 0, err
	}
	_, wGrad, err := t.network.Backward(xb, w)
	if err != nil {
		return 0, err
	}
	grads, err := chain(lossGrad, wGrad)
	if err != nil {
		return 0, err
	}
	if err := t.optimizer.Step(weights, grads); err != nil {
		return 0, err
	}
	return loss, nil
}
