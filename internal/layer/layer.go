// Package layer provides shape-checked feed-forward layer implementations.
package layer

// Kind identifies the concrete layer type.
type Kind int

const (
	KindConv2D Kind = iota
	KindDense
	KindReLU
	KindSoftmax
)

func (k Kind) String() string {
	switch k {
	case KindConv2D:
		return "conv2d"
	case KindDense:
		return "dense"
	case KindReLU:
		return "relu"
	case KindSoftmax:
		return "softmax"
	default:
		return "unknown"
	}
}

// Layer is one shape-checked transformation step.
//
// A layer starts unbound. SetInputShape binds it, sizing any coefficient
// storage that depends on the input shape. Binding the same shape twice is a
// no-op; binding a different shape reallocates and re-initialises that
// storage.
//
// Forward never mutates x or the layer and always returns a fresh buffer of
// OutputShape().Product() values.
type Layer interface {
	SetInputShape(s Shape) error
	Bound() bool
	InputShape() Shape
	OutputShape() Shape
	Forward(x []float64) ([]float64, error)

	// Params returns a copy of the layer's fixed coefficients.
	Params() []float64
	Kind() Kind
}

// binding holds the input shape shared by every layer.
type binding struct {
	in    Shape
	bound bool
}

// InputShape returns the bound input shape, or the zero shape if unbound.
func (b *binding) InputShape() Shape {
	return b.in
}

// Bound reports whether the layer has an input shape.
func (b *binding) Bound() bool {
	return b.bound
}

// check validates x against the bound input shape.
func (b *binding) check(x []float64) error {
	if !b.bound {
		return ErrUnbound
	}
	return CheckLen(x, b.in)
}

func (b *binding) set(s Shape) {
	b.in = s
	b.bound = true
}
