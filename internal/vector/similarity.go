// Package vector provides similarity helpers for embedding vectors.
package vector

import "math"

const normEpsilon = 1e-8

// InnerProduct returns the inner product of two vectors (equals cosine
// similarity when both are normalized).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize scales x to unit length in place and returns it. A near-zero
// vector is left unchanged to avoid dividing by zero.
func Normalize(x []float32) []float32 {
	norm := L2Norm(x)
	if norm < normEpsilon {
		return x
	}
	inv := float32(1 / norm)
	for i := range x {
		x[i] *= inv
	}
	return x
}
