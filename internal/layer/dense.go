package layer

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected projection without bias.
//
// Weights are stored input-major: the weight from input i to output j is at
// weights[i + inSize*j]. Read as a row-major matrix this is [outSize, inSize],
// which is what the forward pass hands to gonum.
type Dense struct {
	binding

	out     Shape
	weights []float64
}

// NewDense creates a dense layer with a fixed output shape. Weights are
// allocated when the layer is bound.
func NewDense(out Shape) (*Dense, error) {
	if out.W < 1 || out.H < 1 {
		return nil, &ShapeError{Op: "dense", Shape: out, Details: "output must be at least 1x1"}
	}
	return &Dense{out: out}, nil
}

// SetInputShape binds the input shape and allocates zeroed weights.
// Rebinding an unchanged shape keeps the current weights.
func (d *Dense) SetInputShape(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if d.bound && d.in == s {
		return nil
	}
	d.set(s)
	d.weights = make([]float64, s.Product()*d.out.Product())
	Logger().Debug("dense weights allocated",
		slog.String("input", s.String()),
		slog.String("output", d.out.String()),
		slog.Int("weights", len(d.weights)))
	return nil
}

// OutputShape returns the declared output shape.
func (d *Dense) OutputShape() Shape {
	return d.out
}

// Forward computes out[j] = sum_i x[i] * weight(i, j).
func (d *Dense) Forward(x []float64) ([]float64, error) {
	if err := d.check(x); err != nil {
		return nil, err
	}

	inSize := d.in.Product()
	outSize := d.out.Product()
	output := make([]float64, outSize)
	if inSize == 0 {
		return output, nil
	}

	w := mat.NewDense(outSize, inSize, d.weights)
	y := mat.NewVecDense(outSize, output)
	y.MulVec(w, mat.NewVecDense(inSize, x))

	return output, nil
}

// Params returns a copy of the weights in input-major order.
func (d *Dense) Params() []float64 {
	params := make([]float64, len(d.weights))
	copy(params, d.weights)
	return params
}

// Kind returns KindDense.
func (d *Dense) Kind() Kind { return KindDense }

// SetWeight sets the weight from input i to output j.
func (d *Dense) SetWeight(i, j int, val float64) error {
	if err := d.checkIndex(i, j); err != nil {
		return err
	}
	d.weights[i+d.in.Product()*j] = val
	return nil
}

// Weight gets the weight from input i to output j.
func (d *Dense) Weight(i, j int) (float64, error) {
	if err := d.checkIndex(i, j); err != nil {
		return 0, err
	}
	return d.weights[i+d.in.Product()*j], nil
}

func (d *Dense) checkIndex(i, j int) error {
	if !d.bound {
		return ErrUnbound
	}
	if i < 0 || i >= d.in.Product() || j < 0 || j >= d.out.Product() {
		return &ShapeError{
			Op:      "weight",
			Shape:   d.in,
			Other:   d.out,
			Details: fmt.Sprintf("index (%d, %d) out of range", i, j),
		}
	}
	return nil
}

// SetParams copies weights in input-major order. It fails with
// ErrShapeMismatch when the length does not match the bound shapes.
func (d *Dense) SetParams(params []float64) error {
	if !d.bound {
		return ErrUnbound
	}
	if len(params) != len(d.weights) {
		return &ShapeMismatchError{Expected: len(d.weights), Actual: len(params)}
	}
	copy(d.weights, params)
	return nil
}
