package layer

import (
	"fmt"
	"math/rand"
)

// Conv2D implements a single-plane valid-mode 2D convolution.
// Stride is 1, there is no padding and no bias.
type Conv2D struct {
	binding

	kernel    Shape
	weights   []float64
	normalize bool
}

// Conv2DOption configures a Conv2D at construction.
type Conv2DOption func(*conv2DConfig)

type conv2DConfig struct {
	seed      int64
	zero      bool
	weights   []float64
	normalize bool
}

// WithSeed sets the seed for the random kernel initialisation.
func WithSeed(seed int64) Conv2DOption {
	return func(c *conv2DConfig) { c.seed = seed }
}

// WithZeroKernel initialises every kernel weight to zero.
func WithZeroKernel() Conv2DOption {
	return func(c *conv2DConfig) { c.zero = true }
}

// WithKernel uses the given row-major kernel weights. The slice is copied.
func WithKernel(weights []float64) Conv2DOption {
	return func(c *conv2DConfig) { c.weights = weights }
}

// WithNormalize divides every output by the number of kernel elements,
// turning the convolution into a weighted mean.
func WithNormalize() Conv2DOption {
	return func(c *conv2DConfig) { c.normalize = true }
}

// NewConv2D creates a convolution with the given kernel shape.
// Without options the kernel is drawn uniformly from [0, 1) with seed 42 and
// outputs are not normalised.
func NewConv2D(kernel Shape, opts ...Conv2DOption) (*Conv2D, error) {
	if kernel.W < 1 || kernel.H < 1 {
		return nil, &ShapeError{Op: "conv2d", Shape: kernel, Details: "kernel must be at least 1x1"}
	}

	cfg := conv2DConfig{seed: 42}
	for _, opt := range opts {
		opt(&cfg)
	}

	weights := make([]float64, kernel.Product())
	switch {
	case cfg.weights != nil:
		if len(cfg.weights) != len(weights) {
			return nil, &ShapeError{
				Op:      "conv2d",
				Shape:   kernel,
				Details: fmt.Sprintf("kernel has %d weights, want %d", len(cfg.weights), len(weights)),
			}
		}
		copy(weights, cfg.weights)
	case cfg.zero:
	default:
		rng := rand.New(rand.NewSource(cfg.seed))
		for i := range weights {
			weights[i] = rng.Float64()
		}
	}

	return &Conv2D{
		kernel:    kernel,
		weights:   weights,
		normalize: cfg.normalize,
	}, nil
}

// SetInputShape binds the input shape. The kernel is independent of the
// input shape and is never reallocated.
func (c *Conv2D) SetInputShape(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := s.Sub(c.kernel); err != nil {
		return &ShapeError{Op: "bind", Shape: s, Other: c.kernel, Details: "kernel larger than input"}
	}
	c.set(s)
	return nil
}

// OutputShape returns input - kernel + 1 in each dimension, or the zero shape
// while unbound.
func (c *Conv2D) OutputShape() Shape {
	if !c.bound {
		return Shape{}
	}
	d, err := c.in.Sub(c.kernel)
	if err != nil {
		return Shape{}
	}
	return d.Add(Shape{W: 1, H: 1})
}

// Forward performs the convolution.
func (c *Conv2D) Forward(x []float64) ([]float64, error) {
	if err := c.check(x); err != nil {
		return nil, err
	}

	outShape := c.OutputShape()
	output := make([]float64, outShape.Product())

	kw, kh := c.kernel.W, c.kernel.H
	inW := c.in.W
	weights := c.weights
	n := float64(c.kernel.Product())

	for oy := 0; oy < outShape.H; oy++ {
		for ox := 0; ox < outShape.W; ox++ {
			sum := 0.0
			for fy := 0; fy < kh; fy++ {
				inBase := ox + (oy+fy)*inW
				wBase := fy * kw
				for fx := 0; fx < kw; fx++ {
					sum += x[inBase+fx] * weights[wBase+fx]
				}
			}
			if c.normalize {
				sum /= n
			}
			output[outShape.Index(ox, oy)] = sum
		}
	}

	return output, nil
}

// Params returns a copy of the kernel weights.
func (c *Conv2D) Params() []float64 {
	params := make([]float64, len(c.weights))
	copy(params, c.weights)
	return params
}

// Kind returns KindConv2D.
func (c *Conv2D) Kind() Kind { return KindConv2D }

// KernelShape returns the kernel shape.
func (c *Conv2D) KernelShape() Shape {
	return c.kernel
}

// Normalized reports whether outputs are divided by the kernel size.
func (c *Conv2D) Normalized() bool {
	return c.normalize
}
