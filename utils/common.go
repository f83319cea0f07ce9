package utils

const (
	NODETOL = 1.e-12
	// MINDET is the smallest admissible Jacobian determinant or surface measure.
	MINDET = 1.e-14
)
