package net

import (
	"log/slog"

	"github.com/FlavioCFOliveira/netview/internal/layer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LayerEvent describes the output of one layer during a forward pass.
type LayerEvent struct {
	Index int
	Kind  layer.Kind
	// Shape is the producing layer's output shape, so Output can be
	// reshaped into a W x H plane.
	Shape  layer.Shape
	Output []float64
}

// Stats computes summary statistics over the event's output.
func (e LayerEvent) Stats() LayerStats {
	return ComputeStats(e.Output)
}

// LayerStats summarises an activation buffer.
type LayerStats struct {
	Avg    float64
	Min    float64
	Max    float64
	Active int // values > 0
	Total  int
}

// ComputeStats calculates summary statistics for an activation slice.
func ComputeStats(data []float64) LayerStats {
	if len(data) == 0 {
		return LayerStats{}
	}

	active := 0
	for _, v := range data {
		if v > 0 {
			active++
		}
	}

	return LayerStats{
		Avg:    stat.Mean(data, nil),
		Min:    floats.Min(data),
		Max:    floats.Max(data),
		Active: active,
		Total:  len(data),
	}
}

// Observer receives layer outputs synchronously, in layer order, during
// Network.ForwardObserved. It must not modify event.Output.
type Observer interface {
	OnForward(event LayerEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event LayerEvent)

// OnForward calls f(event).
func (f ObserverFunc) OnForward(event LayerEvent) {
	f(event)
}

// Multi returns an Observer that forwards each event to every observer in
// order. Nil entries are skipped.
func Multi(observers ...Observer) Observer {
	return multiObserver(observers)
}

type multiObserver []Observer

func (m multiObserver) OnForward(event LayerEvent) {
	for _, o := range m {
		if o != nil {
			o.OnForward(event)
		}
	}
}

// LogObserver logs one debug record per layer through the package logger.
type LogObserver struct{}

// OnForward logs the event's shape and statistics.
func (LogObserver) OnForward(event LayerEvent) {
	s := event.Stats()
	layer.Logger().Debug("layer forward",
		slog.Int("index", event.Index),
		slog.String("kind", event.Kind.String()),
		slog.String("shape", event.Shape.String()),
		slog.Float64("avg", s.Avg),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Int("active", s.Active),
		slog.Int("total", s.Total))
}
