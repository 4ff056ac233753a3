package train

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/qnn/internal/tensor"
)

// ErrShapeMismatch is returned when predictions and targets disagree in shape.
var ErrShapeMismatch = errors.New("prediction and target shapes differ")

// MSE returns the mean squared error of pred against target and its
// gradient with respect to pred.
//
//	loss  = Σ (pred - target)² / N
//	dLoss = 2 (pred - target) / N
func MSE(pred, target *tensor.Tensor[float64]) (float64, *tensor.Tensor[float64], error) {
	if !pred.Shape().Equal(target.Shape()) {
		return 0, nil, errors.Wrapf(ErrShapeMismatch, "pred %v, target %v", pred.Shape(), target.Shape())
	}
	grad := tensor.Zeros[float64](pred.Shape())
	n := len(grad.Data())
	if n == 0 {
		return 0, grad, nil
	}
	diff := grad.Data()
	floats.SubTo(diff, pred.Data(), target.Data())
	loss := floats.Dot(diff, diff) / float64(n)
	floats.Scale(2/float64(n), diff)
	return loss, grad, nil
}

// chain contracts dLoss/dOutput of shape (batch, *out) with a gradient of
// shape (batch, *out, k) into dLoss/dParam of length k.
func chain(lossGrad, grad *tensor.Tensor[float64]) ([]float64, error) {
	shape := grad.Shape()
	k := shape[len(shape)-1]
	if !lossGrad.Shape().Equal(shape[:len(shape)-1]) {
		return nil, errors.Wrapf(ErrShapeMismatch, "loss gradient %v, network gradient %v", lossGrad.Shape(), shape)
	}
	out := make([]float64, k)
	if k == 0 {
		return out, nil
	}
	g := grad.Data()
	for i, dl := range lossGrad.Data() {
		floats.AddScaled(out, dl, g[i*k:(i+1)*k])
	}
	return out, nil
}
