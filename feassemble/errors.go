package feassemble

import "errors"

var (
	// ErrInvalidConfiguration marks setup errors: missing labels, missing
	// auxiliary data sources, kernels changed after initialization.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNotImplemented marks numerical paths an integrator does not provide,
	// so callers can pick another time integration scheme.
	ErrNotImplemented = errors.New("not implemented")
)
