// Package net provides the layer pipeline that threads one buffer through an
// ordered sequence of bound layers.
package net

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/FlavioCFOliveira/netview/internal/layer"
)

// Network is an ordered, shape-checked sequence of layers.
//
// Layers are bound as they are added: each layer's input shape is the
// previous layer's output shape, or the network input shape for the first
// layer. Layers cannot be removed or reordered, so the adjacency invariant
// established by Add holds for the network's lifetime.
//
// A Network is not safe for concurrent Add calls. Once construction is done,
// Forward only reads layer state.
type Network struct {
	input  layer.Shape
	layers []layer.Layer
}

// New creates an empty network accepting buffers of the given shape.
func New(input layer.Shape) *Network {
	return &Network{input: input}
}

// tail returns the shape the next added layer is bound to.
func (n *Network) tail() layer.Shape {
	if len(n.layers) == 0 {
		return n.input
	}
	return n.layers[len(n.layers)-1].OutputShape()
}

// Add binds l to the current tail shape and appends it.
// When binding fails l is not appended and the error is returned.
//
// l must be unbound: a layer already added to a network, or bound by hand,
// is rejected with layer.ErrAlreadyBound. Layers must not be rebound with
// SetInputShape after Add; the network does not re-check adjacent shapes.
func (n *Network) Add(l layer.Layer) error {
	if l.Bound() {
		return fmt.Errorf("layer %d (%s): %w", len(n.layers), l.Kind(), layer.ErrAlreadyBound)
	}
	in := n.tail()
	if err := l.SetInputShape(in); err != nil {
		return fmt.Errorf("layer %d (%s): %w", len(n.layers), l.Kind(), err)
	}
	n.layers = append(n.layers, l)

	layer.Logger().Debug("layer added",
		slog.Int("index", len(n.layers)-1),
		slog.String("kind", l.Kind().String()),
		slog.String("input", in.String()),
		slog.String("output", l.OutputShape().String()),
		slog.Int("params", len(l.Params())))
	return nil
}

// Forward performs a forward pass through all layers.
func (n *Network) Forward(x []float64) ([]float64, error) {
	return n.ForwardObserved(x, nil)
}

// ForwardObserved performs a forward pass, calling obs after each layer
// with that layer's output and before the next layer runs. obs may be nil.
//
// The buffer handed to obs is the one passed to the next layer; observers
// must copy it if they keep it and must not modify it.
func (n *Network) ForwardObserved(x []float64, obs Observer) ([]float64, error) {
	if err := layer.CheckLen(x, n.input); err != nil {
		return nil, err
	}

	if len(n.layers) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}

	curr := x
	for i, l := range n.layers {
		out, err := l.Forward(curr)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.Kind(), err)
		}
		if obs != nil {
			obs.OnForward(LayerEvent{
				Index:  i,
				Kind:   l.Kind(),
				Shape:  l.OutputShape(),
				Output: out,
			})
		}
		curr = out
	}
	return curr, nil
}

// InputShape returns the declared input shape.
func (n *Network) InputShape() layer.Shape {
	return n.input
}

// OutputShape returns the last layer's output shape. An empty network
// reports the zero shape.
func (n *Network) OutputShape() layer.Shape {
	if len(n.layers) == 0 {
		return layer.Shape{}
	}
	return n.layers[len(n.layers)-1].OutputShape()
}

// Layers returns the layers in evaluation order.
func (n *Network) Layers() []layer.Layer {
	layers := make([]layer.Layer, len(n.layers))
	copy(layers, n.layers)
	return layers
}

// Len returns the number of layers.
func (n *Network) Len() int {
	return len(n.layers)
}

// Summary writes a table of the network architecture to w.
func (n *Network) Summary(w io.Writer) {
	fmt.Fprintln(w, "Model: Network")
	fmt.Fprintln(w, "_________________________________________________________________")
	fmt.Fprintf(w, "%-25s %-20s %-10s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "%-25s %-20s %-10d\n", "input", fmt.Sprintf("(%d, %d)", n.input.W, n.input.H), 0)

	totalParams := 0
	for i, l := range n.layers {
		out := l.OutputShape()
		params := len(l.Params())
		totalParams += params
		fmt.Fprintf(w, "%-25s %-20s %-10d\n",
			fmt.Sprintf("%s_%d", l.Kind(), i),
			fmt.Sprintf("(%d, %d)", out.W, out.H),
			params)
	}
	fmt.Fprintln(w, "=================================================================")
	fmt.Fprintf(w, "Total params: %d\n", totalParams)
	fmt.Fprintln(w, "_________________________________________________________________")
}
