package layer

import "github.com/FlavioCFOliveira/netview/internal/activations"

// ReLU applies max(x, 0) elementwise.
type ReLU struct {
	binding
	act activations.ReLU
}

// NewReLU creates an unbound ReLU layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// SetInputShape binds the input shape.
func (r *ReLU) SetInputShape(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.set(s)
	return nil
}

// OutputShape equals the input shape.
func (r *ReLU) OutputShape() Shape {
	return r.in
}

// Forward applies the activation to every element.
func (r *ReLU) Forward(x []float64) ([]float64, error) {
	if err := r.check(x); err != nil {
		return nil, err
	}
	output := make([]float64, len(x))
	for i, v := range x {
		output[i] = r.act.Activate(v)
	}
	return output, nil
}

// Params returns an empty slice; ReLU has no coefficients.
func (r *ReLU) Params() []float64 {
	return make([]float64, 0)
}

// Kind returns KindReLU.
func (r *ReLU) Kind() Kind { return KindReLU }
