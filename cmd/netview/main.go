package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/netview/internal/layer"
	"github.com/FlavioCFOliveira/netview/internal/mnist"
	"github.com/FlavioCFOliveira/netview/internal/net"
	"github.com/FlavioCFOliveira/netview/internal/render"
)

// netview evaluates one MNIST sample and writes the input and every layer
// output as PNG images.
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "netview: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	images    string
	labels    string
	index     int
	kernel    int
	normalize bool
	seed      int64
	out       string
	scale     int
	verbose   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("netview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.images, "images", "assets/samples/mnist/train-images-idx3-ubyte", "IDX image archive")
	fs.StringVar(&o.labels, "labels", "assets/samples/mnist/train-labels-idx1-ubyte", "IDX label archive")
	fs.IntVar(&o.index, "index", 0, "sample to evaluate")
	fs.IntVar(&o.kernel, "kernel", 5, "convolution kernel size")
	fs.BoolVar(&o.normalize, "normalize", false, "divide convolution output by the kernel size")
	fs.Int64Var(&o.seed, "seed", 42, "seed for the convolution kernel")
	fs.StringVar(&o.out, "out", ".", "output directory for PNG files")
	fs.IntVar(&o.scale, "scale", 2, "upscale factor for PNG files")
	fs.BoolVar(&o.verbose, "v", false, "log debug output")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// buildNetwork assembles conv -> relu -> dense(10) -> softmax.
func buildNetwork(input layer.Shape, o options) (*net.Network, error) {
	convOpts := []layer.Conv2DOption{layer.WithSeed(o.seed)}
	if o.normalize {
		convOpts = append(convOpts, layer.WithNormalize())
	}
	conv, err := layer.NewConv2D(layer.Shape{W: o.kernel, H: o.kernel}, convOpts...)
	if err != nil {
		return nil, err
	}
	dense, err := layer.NewDense(layer.Shape{W: 10, H: 1})
	if err != nil {
		return nil, err
	}

	n := net.New(input)
	for _, l := range []layer.Layer{conv, layer.NewReLU(), dense, layer.NewSoftmax()} {
		if err := n.Add(l); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	layer.SetLogger(logger)
	defer layer.SetLogger(nil)

	images, labels, err := mnist.Open(o.images, o.labels)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", slog.Int("samples", images.Len()), slog.String("shape", images.Shape().String()))

	sample, err := images.Sample(o.index)
	if err != nil {
		return err
	}

	network, err := buildNetwork(images.Shape(), o)
	if err != nil {
		return err
	}
	network.Summary(stdout)

	rec := &render.Recorder{Scale: o.scale}
	output, err := network.ForwardObserved(sample, net.Multi(net.LogObserver{}, rec))
	if err != nil {
		return err
	}
	if rec.Err != nil {
		return rec.Err
	}

	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return err
	}
	prefix := fmt.Sprintf("sample%d", o.index)
	input, err := render.Gray(sample, images.Shape())
	if err != nil {
		return err
	}
	inputPath := filepath.Join(o.out, prefix+"-input.png")
	if err := render.WritePNG(inputPath, render.Upscale(input, o.scale)); err != nil {
		return err
	}
	paths, err := rec.WritePNGs(o.out, prefix)
	if err != nil {
		return err
	}
	logger.Info("images written", slog.Int("files", len(paths)+1), slog.String("dir", o.out))

	// The dense weights are never trained, so the softmax output is a
	// placeholder distribution rather than a prediction.
	top := argmax(output)
	fmt.Fprintf(stdout, "Sample %d: label=%d argmax=%d p=%.4f (untrained dense weights)\n",
		o.index, labels[o.index], top, output[top])
	return nil
}

func argmax(slice []float64) int {
	maxIdx := 0
	for i := 1; i < len(slice); i++ {
		if slice[i] > slice[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}
