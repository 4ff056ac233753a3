package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/qnn/internal/config"
	"github.com/born-ml/qnn/internal/qnn"
	"github.com/born-ml/qnn/internal/tensor"
)

type evalFlags struct {
	model   string
	rows    []string
	weights string
}

func (f *evalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model file (YAML)")
	cmd.Flags().StringArrayVarP(&f.rows, "input", "x", nil, "comma-separated input row; repeat for a batch")
	cmd.Flags().StringVarP(&f.weights, "weights", "w", "", "comma-separated weights (default: the model's initial weights)")
	_ = cmd.MarkFlagRequired("model")
}

// build loads the model and returns the network with its weights.
func (f *evalFlags) build(g *globalFlags, cmd *cobra.Command) (*config.Model, *qnn.OpflowQNN, *tensor.Tensor[float64], error) {
	logger, err := g.logger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := config.Load(f.model)
	if err != nil {
		return nil, nil, nil, err
	}
	m.Logger = logger
	net, err := m.Build()
	if err != nil {
		return nil, nil, nil, err
	}

	var weights *tensor.Tensor[float64]
	if f.weights == "" {
		weights, err = m.WeightTensor()
	} else {
		var w []float64
		if w, err = parseFloats(f.weights); err == nil {
			weights, err = tensor.FromSlice(w, tensor.Shape{len(w)})
		}
	}
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "--weights")
	}
	return m, net, weights, nil
}

// load builds the network and parses the --input rows.
func (f *evalFlags) load(g *globalFlags, cmd *cobra.Command) (*qnn.OpflowQNN, *tensor.Tensor[float64], *tensor.Tensor[float64], error) {
	_, net, weights, err := f.build(g, cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	input, err := parseRows(f.rows, net.NumInputs())
	if err != nil {
		return nil, nil, nil, err
	}
	return net, input, weights, nil
}

func newForwardCmd(g *globalFlags) *cobra.Command {
	var f evalFlags
	cmd := &cobra.Command{
		Use:   "forward",
		Short: "Evaluate the network on a batch of inputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			net, input, weights, err := f.load(g, cmd)
			if err != nil {
				return err
			}
			out, err := net.Forward(input, weights)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"shape":  out.Shape(),
				"output": nested(out),
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newBackwardCmd(g *globalFlags) *cobra.Command {
	var (
		f      evalFlags
		perRow bool
	)
	cmd := &cobra.Command{
		Use:   "backward",
		Short: "Compute input and weight gradients on a batch of inputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			net, input, weights, err := f.load(g, cmd)
			if err != nil {
				return err
			}
			backward := net.Backward
			if perRow {
				backward = net.BackwardRows
			}
			inGrad, wGrad, err := backward(input, weights)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"input_grad_shape":  inGrad.Shape(),
				"input_grad":        nested(inGrad),
				"weight_grad_shape": wGrad.Shape(),
				"weight_grad":       nested(wGrad),
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&perRow, "per-row", false, "evaluate the gradient one row at a time")
	return cmd
}

func newTrainCmd(g *globalFlags) *cobra.Command {
	var f evalFlags
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the weights to the model's training data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, net, weights, err := f.build(g, cmd)
			if err != nil {
				return err
			}
			w := append([]float64(nil), weights.Data()...)
			history, err := m.Fit(net, w)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"loss":    history.Loss,
				"weights": w,
			})
		},
	}
	f.register(cmd)
	return cmd
}

// parseRows turns repeated "a,b,c" flags into a (len(rows), width) tensor.
// No rows means one empty row, which is only valid for width 0.
func parseRows(rows []string, width int) (*tensor.Tensor[float64], error) {
	if len(rows) == 0 {
		if width != 0 {
			return nil, errors.Errorf("--input: the network takes %d inputs per row", width)
		}
		return nil, nil
	}
	flat := make([]float64, 0, len(rows)*width)
	for i, r := range rows {
		vals, err := parseFloats(r)
		if err != nil {
			return nil, errors.Wrapf(err, "--input %d", i)
		}
		if len(vals) != width {
			return nil, errors.Errorf("--input %d: %d values, want %d", i, len(vals), width)
		}
		flat = append(flat, vals...)
	}
	return tensor.FromSlice(flat, tensor.Shape{len(rows), width})
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return []float64{}, nil
	}
	fields := strings.Split(s, ",")
	out := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "value %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// nested converts a tensor into nested slices for JSON output.
func nested(t *tensor.Tensor[float64]) any {
	var build func(dims tensor.Shape, data []float64) any
	build = func(dims tensor.Shape, data []float64) any {
		if len(dims) == 0 {
			return data[0]
		}
		if len(dims) == 1 {
			return append([]float64{}, data...)
		}
		stride := tensor.Shape(dims[1:]).NumElements()
		out := make([]any, dims[0])
		for i := range out {
			out[i] = build(dims[1:], data[i*stride:(i+1)*stride])
		}
		return out
	}
	return build(t.Shape(), t.Data())
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
