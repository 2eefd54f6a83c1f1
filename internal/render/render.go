// Package render turns activation buffers into greyscale images.
package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/netview/internal/layer"
	"github.com/FlavioCFOliveira/netview/internal/net"
	"golang.org/x/image/draw"
)

// Gray converts a row-major buffer of shape s into an image. Values are
// clamped to [0, 1] and scaled to 0..255.
func Gray(buf []float64, s layer.Shape) (*image.Gray, error) {
	if err := layer.CheckLen(buf, s); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, s.W, s.H))
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			v := min(max(buf[s.Index(x, y)], 0), 1)
			img.Pix[img.PixOffset(x, y)] = uint8(v * 255)
		}
	}
	return img, nil
}

// Upscale enlarges img by an integer factor with nearest-neighbour
// sampling so individual activations stay visible as blocks.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Frame is one rendered layer output.
type Frame struct {
	Index int
	Kind  layer.Kind
	Image image.Image
}

// Recorder is a net.Observer that keeps an image of every layer output.
type Recorder struct {
	Scale  int
	Frames []Frame
	Err    error
}

var _ net.Observer = (*Recorder)(nil)

// OnForward renders the event's output. The first rendering error is kept
// in r.Err and later events are still recorded.
func (r *Recorder) OnForward(event net.LayerEvent) {
	img, err := Gray(event.Output, event.Shape)
	if err != nil {
		if r.Err == nil {
			r.Err = fmt.Errorf("render layer %d: %w", event.Index, err)
		}
		return
	}
	r.Frames = append(r.Frames, Frame{
		Index: event.Index,
		Kind:  event.Kind,
		Image: Upscale(img, r.Scale),
	})
}

// Reset drops all recorded frames.
func (r *Recorder) Reset() {
	r.Frames = r.Frames[:0]
	r.Err = nil
}

// WritePNGs writes every frame to dir as <prefix>-<index>-<kind>.png and
// returns the written paths.
func (r *Recorder) WritePNGs(dir, prefix string) ([]string, error) {
	paths := make([]string, 0, len(r.Frames))
	for _, f := range r.Frames {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d-%s.png", prefix, f.Index, f.Kind))
		if err := WritePNG(path, f.Image); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
