package layer

import "fmt"

// Shape is a two-dimensional extent. Buffers described by a Shape are
// flat and row-major: element (x, y) lives at x + y*W.
type Shape struct {
	W int
	H int
}

// Product returns the number of elements a buffer of this shape holds.
func (s Shape) Product() int {
	return s.W * s.H
}

// Sub returns the componentwise difference s - o.
// It fails when o is larger than s in either dimension.
func (s Shape) Sub(o Shape) (Shape, error) {
	if o.W > s.W || o.H > s.H {
		return Shape{}, &ShapeError{
			Op:      "sub",
			Shape:   s,
			Other:   o,
			Details: "subtrahend exceeds minuend",
		}
	}
	return Shape{W: s.W - o.W, H: s.H - o.H}, nil
}

// Add returns the componentwise sum s + o.
func (s Shape) Add(o Shape) Shape {
	return Shape{W: s.W + o.W, H: s.H + o.H}
}

// Index returns the flat offset of (x, y).
func (s Shape) Index(x, y int) int {
	return x + y*s.W
}

// IsZero reports whether s is the zero shape.
func (s Shape) IsZero() bool {
	return s.W == 0 && s.H == 0
}

// Validate checks that no component is negative.
func (s Shape) Validate() error {
	if s.W < 0 || s.H < 0 {
		return &ShapeError{Op: "validate", Shape: s, Details: "negative dimension"}
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}
