// Package activations provides the elementwise and vector activations used
// by the activation layers.
package activations

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Activation is an elementwise activation function.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Softmax normalises a whole vector. It has no elementwise form.
type Softmax struct{}

// ActivateBatch writes softmax(x) into dst and returns it.
// dst may alias x. When dst is nil a new slice is allocated.
//
// The maximum is subtracted before exponentiating; the result is the same
// as exp(x[k]) / sum(exp(x)) but does not overflow for large inputs.
func (s Softmax) ActivateBatch(dst, x []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(x))
	}
	if len(x) == 0 {
		return dst[:0]
	}
	dst = dst[:len(x)]

	maxVal := floats.Max(x)
	for i, v := range x {
		dst[i] = math.Exp(v - maxVal)
	}

	// Normalize
	floats.Scale(1/floats.Sum(dst), dst)
	return dst
}
