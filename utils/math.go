package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func Cross(a, b []float64) (c [3]float64) {
	c[0] = a[1]*b[2] - a[2]*b[1]
	c[1] = a[2]*b[0] - a[0]*b[2]
	c[2] = a[0]*b[1] - a[1]*b[0]
	return
}

func Norm(a []float64) float64 {
	return floats.Norm(a, 2)
}

// Normalize scales a to unit length in place and returns the original length.
func Normalize(a []float64) (length float64) {
	length = floats.Norm(a, 2)
	if length > 0 {
		floats.Scale(1./length, a)
	}
	return
}

// NearlyEqual compares with an absolute tolerance that grows with magnitude.
func NearlyEqual(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}
