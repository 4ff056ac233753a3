package config

import (
	"github.com/pkg/errors"

	"github.com/born-ml/qnn/internal/optim"
	"github.com/born-ml/qnn/internal/qnn"
	"github.com/born-ml/qnn/internal/tensor"
	"github.com/born-ml/qnn/internal/train"
)

// Training describes how the weights are fitted and to which data.
type Training struct {
	Epochs    int       `yaml:"epochs"`
	BatchSize int       `yaml:"batch_size"`
	Optimizer string    `yaml:"optimizer"` // adam (default) or sgd
	LR        float64   `yaml:"lr"`
	Momentum  float64   `yaml:"momentum"`
	Data      TrainData `yaml:"data"`
}

// TrainData holds one input row and one target row per sample.
type TrainData struct {
	Inputs  [][]float64 `yaml:"inputs"`
	Targets [][]float64 `yaml:"targets"`
}

// NewOptimizer builds the configured optimizer.
func (t *Training) NewOptimizer() (optim.Optimizer, error) {
	switch t.Optimizer {
	case "", "adam":
		return optim.NewAdam(optim.AdamConfig{LR: t.LR}), nil
	case "sgd":
		return optim.NewSGD(optim.SGDConfig{LR: t.LR, Momentum: t.Momentum}), nil
	default:
		return nil, errors.Wrapf(ErrInvalidModel, "training.optimizer: unknown optimizer %q", t.Optimizer)
	}
}

// TrainerConfig returns the trainer options of the block.
func (t *Training) TrainerConfig() train.Config {
	cfg := train.DefaultConfig()
	if t.Epochs > 0 {
		cfg.Epochs = t.Epochs
	}
	cfg.BatchSize = t.BatchSize
	return cfg
}

// Tensors returns the training data as (n, len(inputs[0])) and
// (n, len(targets[0])) tensors.
func (d TrainData) Tensors() (x, y *tensor.Tensor[float64], err error) {
	if len(d.Inputs) != len(d.Targets) {
		return nil, nil, errors.Wrapf(ErrInvalidModel, "training.data: %d input rows, %d target rows", len(d.Inputs), len(d.Targets))
	}
	if x, err = matrix("training.data.inputs", d.Inputs); err != nil {
		return nil, nil, err
	}
	if y, err = matrix("training.data.targets", d.Targets); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// matrix packs equally long rows into a 2-D tensor.
func matrix(field string, rows [][]float64) (*tensor.Tensor[float64], error) {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, errors.Wrapf(ErrInvalidModel, "%s[%d]: %d values, want %d", field, i, len(r), cols)
		}
		flat = append(flat, r...)
	}
	return tensor.FromSlice(flat, tensor.Shape{len(rows), cols})
}

// Fit trains net on the model's training block, updating weights in place.
func (m *Model) Fit(net qnn.NeuralNetwork, weights []float64) (train.History, error) {
	if m.Training == nil {
		return train.History{}, errors.Wrap(ErrInvalidModel, "training: block is missing")
	}
	opt, err := m.Training.NewOptimizer()
	if err != nil {
		return train.History{}, err
	}
	x, y, err := m.Training.Data.Tensors()
	if err != nil {
		return train.History{}, err
	}
	cfg := m.Training.TrainerConfig()
	if m.Logger != nil {
		cfg.Logger = m.Logger
	}
	return train.New(net, opt, cfg).Fit(x, y, weights)
}
