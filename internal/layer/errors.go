package layer

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrShape reports invalid shape arithmetic at bind or construction time.
	ErrShape = errors.New("invalid shape")
	// ErrShapeMismatch reports a buffer whose length disagrees with the
	// declared input shape.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrUnbound reports use of a layer that has no input shape yet.
	ErrUnbound = errors.New("layer input shape not bound")
	// ErrAlreadyBound reports a layer handed to a network after it was
	// bound elsewhere.
	ErrAlreadyBound = errors.New("layer already bound")
)

// ShapeError provides detail about an invalid shape operation.
type ShapeError struct {
	Op      string // Operation that failed (e.g. "sub", "bind")
	Shape   Shape  // Primary shape involved
	Other   Shape  // Secondary shape, if any
	Details string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Other.IsZero() {
		return fmt.Sprintf("%s: %s %s: %s", ErrShape, e.Op, e.Shape, e.Details)
	}
	return fmt.Sprintf("%s: %s %s and %s: %s", ErrShape, e.Op, e.Shape, e.Other, e.Details)
}

// Unwrap lets errors.Is match ErrShape.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

// ShapeMismatchError reports the expected and actual buffer lengths.
type ShapeMismatchError struct {
	Expected int
	Actual   int
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d values, got %d", ErrShapeMismatch, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// CheckLen returns a *ShapeMismatchError when len(x) != s.Product().
func CheckLen(x []float64, s Shape) error {
	if len(x) != s.Product() {
		return &ShapeMismatchError{Expected: s.Product(), Actual: len(x)}
	}
	return nil
}
