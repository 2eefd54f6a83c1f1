package layer

import "github.com/FlavioCFOliveira/netview/internal/activations"

// Softmax normalises the whole input buffer into a probability distribution.
type Softmax struct {
	binding
	act activations.Softmax
}

// NewSoftmax creates an unbound Softmax layer.
func NewSoftmax() *Softmax {
	return &Softmax{}
}

// SetInputShape binds the input shape.
func (s *Softmax) SetInputShape(in Shape) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.set(in)
	return nil
}

// OutputShape equals the input shape.
func (s *Softmax) OutputShape() Shape {
	return s.in
}

// Forward returns exp(x[k]) / sum(exp(x)) for every k.
func (s *Softmax) Forward(x []float64) ([]float64, error) {
	if err := s.check(x); err != nil {
		return nil, err
	}
	return s.act.ActivateBatch(make([]float64, len(x)), x), nil
}

// Params returns an empty slice; Softmax has no coefficients.
func (s *Softmax) Params() []float64 {
	return make([]float64, 0)
}

// Kind returns KindSoftmax.
func (s *Softmax) Kind() Kind { return KindSoftmax }
