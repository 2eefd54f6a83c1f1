// Package net provides unit tests for the layer pipeline.
package net

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/FlavioCFOliveira/netview/internal/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func mustConv(t *testing.T, kernel layer.Shape, opts ...layer.Conv2DOption) *layer.Conv2D {
	t.Helper()
	c, err := layer.NewConv2D(kernel, opts...)
	require.NoError(t, err)
	return c
}

func mustDense(t *testing.T, out layer.Shape) *layer.Dense {
	t.Helper()
	d, err := layer.NewDense(out)
	require.NoError(t, err)
	return d
}

func ramp(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i%7) - 3
	}
	return x
}

// TestNetworkShapePropagation checks 28x28 -> conv 5x5 -> relu = 24x24.
func TestNetworkShapePropagation(t *testing.T) {
	n := New(layer.Shape{W: 28, H: 28})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5})))
	require.NoError(t, n.Add(layer.NewReLU()))

	assert.Equal(t, layer.Shape{W: 24, H: 24}, n.OutputShape())
	assert.Equal(t, layer.Shape{W: 28, H: 28}, n.InputShape())
	assert.Equal(t, 2, n.Len())
}

func TestNetworkAdjacentShapesMatch(t *testing.T) {
	n := New(layer.Shape{W: 12, H: 10})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 3, H: 3})))
	require.NoError(t, n.Add(layer.NewReLU()))
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 2, H: 4})))
	require.NoError(t, n.Add(mustDense(t, layer.Shape{W: 10, H: 1})))
	require.NoError(t, n.Add(layer.NewSoftmax()))

	layers := n.Layers()
	assert.Equal(t, n.InputShape(), layers[0].InputShape())
	for i := 0; i+1 < len(layers); i++ {
		assert.Equal(t, layers[i].OutputShape(), layers[i+1].InputShape(), "layers %d/%d", i, i+1)
	}
	assert.Equal(t, layer.Shape{W: 10, H: 1}, n.OutputShape())
}

func TestNetworkEmpty(t *testing.T) {
	n := New(layer.Shape{W: 2, H: 2})
	assert.Equal(t, layer.Shape{}, n.OutputShape())

	input := []float64{1, 2, 3, 4}
	output, err := n.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, input, output)

	// The result is a copy.
	output[0] = 99
	assert.Equal(t, 1.0, input[0])
}

// TestNetworkForwardShapeMismatch checks a 783 value buffer against 28x28.
func TestNetworkForwardShapeMismatch(t *testing.T) {
	n := New(layer.Shape{W: 28, H: 28})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5})))

	_, err := n.Forward(make([]float64, 783))
	require.ErrorIs(t, err, layer.ErrShapeMismatch)

	var me *layer.ShapeMismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 784, me.Expected)
	assert.Equal(t, 783, me.Actual)
}

func TestNetworkAddRejectsLargeKernel(t *testing.T) {
	n := New(layer.Shape{W: 4, H: 4})
	err := n.Add(mustConv(t, layer.Shape{W: 5, H: 5}))
	require.ErrorIs(t, err, layer.ErrShape)
	assert.Contains(t, err.Error(), "layer 0 (conv2d)")
	assert.Equal(t, 0, n.Len())
	assert.Equal(t, layer.Shape{}, n.OutputShape())

	var se *layer.ShapeError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, layer.Shape{W: 5, H: 5}, se.Other)
}

// TestNetworkZeroKernelEndToEnd checks conv(zero 5x5) + relu on 6x6.
func TestNetworkAddRejectsBoundLayer(t *testing.T) {
	relu := layer.NewReLU()
	first := New(layer.Shape{W: 4, H: 4})
	require.NoError(t, first.Add(relu))

	second := New(layer.Shape{W: 3, H: 3})
	err := second.Add(relu)
	require.ErrorIs(t, err, layer.ErrAlreadyBound)
	assert.Equal(t, 0, second.Len())

	// The layer keeps the shape the first network gave it.
	assert.Equal(t, layer.Shape{W: 4, H: 4}, relu.InputShape())
	assert.Equal(t, layer.Shape{W: 4, H: 4}, first.OutputShape())

	// Adding the same layer twice is rejected too.
	require.ErrorIs(t, first.Add(relu), layer.ErrAlreadyBound)
	assert.Equal(t, 1, first.Len())

	// So is a layer bound by hand.
	dense := mustDense(t, layer.Shape{W: 2, H: 1})
	require.NoError(t, dense.SetInputShape(layer.Shape{W: 4, H: 4}))
	require.ErrorIs(t, first.Add(dense), layer.ErrAlreadyBound)
}

func TestNetworkZeroKernelEndToEnd(t *testing.T) {
	n := New(layer.Shape{W: 6, H: 6})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5}, layer.WithZeroKernel())))
	require.NoError(t, n.Add(layer.NewReLU()))

	assert.Equal(t, layer.Shape{W: 2, H: 2}, n.OutputShape())

	output, err := n.Forward(ramp(36))
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), output)
}

func TestNetworkZeroKernel4x4Output(t *testing.T) {
	n := New(layer.Shape{W: 8, H: 8})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5}, layer.WithZeroKernel())))
	require.NoError(t, n.Add(layer.NewReLU()))

	output, err := n.Forward(ramp(64))
	require.NoError(t, err)
	assert.Equal(t, layer.Shape{W: 4, H: 4}, n.OutputShape())
	assert.Equal(t, make([]float64, 16), output)
}

func TestNetworkClassifier(t *testing.T) {
	n := New(layer.Shape{W: 28, H: 28})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5}, layer.WithNormalize())))
	require.NoError(t, n.Add(layer.NewReLU()))
	require.NoError(t, n.Add(mustDense(t, layer.Shape{W: 10, H: 1})))
	require.NoError(t, n.Add(layer.NewSoftmax()))

	output, err := n.Forward(ramp(784))
	require.NoError(t, err)
	require.Len(t, output, 10)

	// Dense weights start at zero, so every class is equally likely.
	for _, p := range output {
		assert.InDelta(t, 0.1, p, 1e-12)
	}
	assert.InDelta(t, 1.0, floats.Sum(output), 1e-12)
}

func TestNetworkForwardObserved(t *testing.T) {
	n := New(layer.Shape{W: 6, H: 6})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 3, H: 3}, layer.WithKernel([]float64{
		0, 0, 0,
		0, -1, 0,
		0, 0, 0,
	}))))
	require.NoError(t, n.Add(layer.NewReLU()))
	require.NoError(t, n.Add(mustDense(t, layer.Shape{W: 3, H: 1})))
	require.NoError(t, n.Add(layer.NewSoftmax()))

	var events []LayerEvent
	obs := ObserverFunc(func(e LayerEvent) {
		e.Output = append([]float64(nil), e.Output...)
		events = append(events, e)
	})

	input := ramp(36)
	output, err := n.ForwardObserved(input, obs)
	require.NoError(t, err)
	require.Len(t, events, 4)

	kinds := []layer.Kind{layer.KindConv2D, layer.KindReLU, layer.KindDense, layer.KindSoftmax}
	for i, e := range events {
		assert.Equal(t, i, e.Index)
		assert.Equal(t, kinds[i], e.Kind)
		assert.Len(t, e.Output, e.Shape.Product())
	}
	assert.Equal(t, layer.Shape{W: 4, H: 4}, events[0].Shape)
	assert.Equal(t, output, events[3].Output)

	// The conv picks the negated centre pixel; relu keeps the positives.
	for i, v := range events[0].Output {
		assert.Equal(t, max(v, 0), events[1].Output[i])
	}

	plain, err := n.Forward(input)
	require.NoError(t, err)
	assert.Equal(t, plain, output)
}

func TestNetworkObserverSeesEachOutputBeforeNextLayer(t *testing.T) {
	n := New(layer.Shape{W: 3, H: 1})
	require.NoError(t, n.Add(layer.NewReLU()))
	require.NoError(t, n.Add(layer.NewSoftmax()))

	var order []layer.Kind
	_, err := n.ForwardObserved([]float64{-1, 0, 1}, ObserverFunc(func(e LayerEvent) {
		order = append(order, e.Kind)
	}))
	require.NoError(t, err)
	assert.Equal(t, []layer.Kind{layer.KindReLU, layer.KindSoftmax}, order)
}

func TestNetworkObserverNotCalledOnMismatch(t *testing.T) {
	n := New(layer.Shape{W: 2, H: 2})
	require.NoError(t, n.Add(layer.NewReLU()))

	called := false
	_, err := n.ForwardObserved([]float64{1}, ObserverFunc(func(LayerEvent) { called = true }))
	assert.ErrorIs(t, err, layer.ErrShapeMismatch)
	assert.False(t, called)
}

func TestNetworkLayersIsACopy(t *testing.T) {
	n := New(layer.Shape{W: 2, H: 2})
	require.NoError(t, n.Add(layer.NewReLU()))

	layers := n.Layers()
	layers[0] = nil
	assert.NotNil(t, n.Layers()[0])
}

func TestNetworkSummary(t *testing.T) {
	n := New(layer.Shape{W: 28, H: 28})
	require.NoError(t, n.Add(mustConv(t, layer.Shape{W: 5, H: 5})))
	require.NoError(t, n.Add(layer.NewReLU()))
	require.NoError(t, n.Add(mustDense(t, layer.Shape{W: 10, H: 1})))

	var buf bytes.Buffer
	n.Summary(&buf)
	out := buf.String()

	assert.Contains(t, out, "conv2d_0")
	assert.Contains(t, out, "(24, 24)")
	assert.Contains(t, out, "dense_2")
	// 25 kernel weights + 576*10 dense weights
	assert.Contains(t, out, "Total params: 5785")
}

func TestNetworkAddLogs(t *testing.T) {
	var buf bytes.Buffer
	layer.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { layer.SetLogger(nil) })

	n := New(layer.Shape{W: 4, H: 4})
	require.NoError(t, n.Add(layer.NewReLU()))
	assert.Contains(t, buf.String(), "layer added")
	assert.Contains(t, buf.String(), "kind=relu")
}
