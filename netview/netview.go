// Package netview is the public entry point for building and evaluating
// shape-checked feed-forward networks.
package netview

import (
	"log/slog"

	"github.com/FlavioCFOliveira/netview/internal/layer"
	"github.com/FlavioCFOliveira/netview/internal/net"
)

// Re-export common types and functions for easier access
type (
	Shape              = layer.Shape
	Layer              = layer.Layer
	Kind               = layer.Kind
	Network            = net.Network
	Observer           = net.Observer
	ObserverFunc       = net.ObserverFunc
	LayerEvent         = net.LayerEvent
	LayerStats         = net.LayerStats
	ShapeError         = layer.ShapeError
	ShapeMismatchError = layer.ShapeMismatchError
	Conv2DOption       = layer.Conv2DOption
)

// Layer kinds
const (
	KindConv2D  = layer.KindConv2D
	KindDense   = layer.KindDense
	KindReLU    = layer.KindReLU
	KindSoftmax = layer.KindSoftmax
)

// Errors
var (
	ErrShape         = layer.ErrShape
	ErrShapeMismatch = layer.ErrShapeMismatch
	ErrUnbound       = layer.ErrUnbound
	ErrAlreadyBound  = layer.ErrAlreadyBound
)

// New creates an empty network for inputs of the given shape.
func New(input Shape) *Network {
	return net.New(input)
}

// Layers
func Conv2D(kernel Shape, opts ...Conv2DOption) (*layer.Conv2D, error) {
	return layer.NewConv2D(kernel, opts...)
}

func Dense(out Shape) (*layer.Dense, error) {
	return layer.NewDense(out)
}

func ReLU() *layer.ReLU {
	return layer.NewReLU()
}

func Softmax() *layer.Softmax {
	return layer.NewSoftmax()
}

// Conv2D options
var (
	WithSeed       = layer.WithSeed
	WithZeroKernel = layer.WithZeroKernel
	WithKernel     = layer.WithKernel
	WithNormalize  = layer.WithNormalize
)

// Observers
func Multi(observers ...Observer) Observer {
	return net.Multi(observers...)
}

// SetLogger installs the logger used while building and evaluating
// networks. Nil restores the silent default.
func SetLogger(l *slog.Logger) {
	layer.SetLogger(l)
}
