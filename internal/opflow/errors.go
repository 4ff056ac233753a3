package opflow

import "github.com/pkg/errors"

// Sentinel errors.
var (
	ErrUnbound           = errors.New("expression has unbound parameters")
	ErrNonDiagonal       = errors.New("sampled state requires a diagonal observable; convert with PauliExpectation first")
	ErrNotDifferentiable = errors.New("expression cannot be differentiated")
	ErrQubitMismatch     = errors.New("observable and circuit widths differ")
	ErrInvalidPauli      = errors.New("invalid Pauli label")
	ErrNonLinear         = errors.New("product of two parametrized coefficients is not linear")
	ErrBatchRows         = errors.New("batch rows do not match expression rows")
)
