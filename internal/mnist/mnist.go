// Package mnist decodes the IDX image and label archives of the MNIST
// dataset into buffers the network can evaluate.
package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/netview/internal/layer"
)

const (
	imagesMagic = 2051
	labelsMagic = 2049

	// maxSide bounds the image width and height.
	maxSide = 1 << 12
	// maxPixelBytes bounds count*width*height of an image archive.
	maxPixelBytes = 1 << 32
)

var (
	// ErrBadMagic reports an archive whose header does not match the
	// expected IDX type.
	ErrBadMagic = errors.New("mnist: wrong magic number")
	// ErrBadHeader reports header dimensions that cannot describe a real
	// archive.
	ErrBadHeader = errors.New("mnist: invalid header")
)

// ImageSet holds decoded greyscale images, one byte per pixel, row-major.
type ImageSet struct {
	Width  int
	Height int
	Pixels [][]byte
}

// Len returns the number of images.
func (s *ImageSet) Len() int {
	return len(s.Pixels)
}

// Shape returns the image extent.
func (s *ImageSet) Shape() layer.Shape {
	return layer.Shape{W: s.Width, H: s.Height}
}

// Sample returns image i with every pixel scaled to [0, 1].
func (s *ImageSet) Sample(i int) ([]float64, error) {
	if i < 0 || i >= len(s.Pixels) {
		return nil, fmt.Errorf("mnist: sample %d out of range [0, %d)", i, len(s.Pixels))
	}
	px := s.Pixels[i]
	out := make([]float64, len(px))
	for j, p := range px {
		out[j] = float64(p) / 255
	}
	return out, nil
}

// ReadImages decodes an IDX3 image archive.
func ReadImages(r io.Reader) (*ImageSet, error) {
	var hdr struct {
		Magic  uint32
		Count  uint32
		Height uint32
		Width  uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist: read image header: %w", err)
	}
	if hdr.Magic != imagesMagic {
		return nil, fmt.Errorf("%w: %d, want %d", ErrBadMagic, hdr.Magic, imagesMagic)
	}

	if hdr.Width > maxSide || hdr.Height > maxSide {
		return nil, fmt.Errorf("%w: image %dx%d exceeds %dx%d", ErrBadHeader, hdr.Width, hdr.Height, maxSide, maxSide)
	}
	size := int(hdr.Width) * int(hdr.Height)
	if hdr.Count > 0 && size == 0 {
		return nil, fmt.Errorf("%w: %d images of size %dx%d", ErrBadHeader, hdr.Count, hdr.Width, hdr.Height)
	}
	if int64(hdr.Count)*int64(size) > maxPixelBytes {
		return nil, fmt.Errorf("%w: %d images of %d bytes exceed %d bytes", ErrBadHeader, hdr.Count, size, int64(maxPixelBytes))
	}

	// Records are appended as they are read, so a header that promises more
	// than the stream holds fails without allocating for the missing data.
	set := &ImageSet{
		Width:  int(hdr.Width),
		Height: int(hdr.Height),
	}
	for i := 0; i < int(hdr.Count); i++ {
		px := make([]byte, size)
		if _, err := io.ReadFull(r, px); err != nil {
			return nil, fmt.Errorf("mnist: read image %d: %w", i, unexpected(err))
		}
		set.Pixels = append(set.Pixels, px)
	}
	return set, nil
}

// ReadLabels decodes an IDX1 label archive.
func ReadLabels(r io.Reader) ([]uint8, error) {
	var hdr struct {
		Magic uint32
		Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("mnist: read label header: %w", err)
	}
	if hdr.Magic != labelsMagic {
		return nil, fmt.Errorf("%w: %d, want %d", ErrBadMagic, hdr.Magic, labelsMagic)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(hdr.Count)))
	if err != nil {
		return nil, fmt.Errorf("mnist: read labels: %w", err)
	}
	if len(labels) != int(hdr.Count) {
		return nil, fmt.Errorf("mnist: read labels: got %d of %d: %w", len(labels), hdr.Count, io.ErrUnexpectedEOF)
	}
	return labels, nil
}

// Open reads an image archive and its label archive from disk. They must
// hold the same number of items. Gzip-compressed archives (*.gz as
// distributed) are decompressed transparently.
func Open(imagesPath, labelsPath string) (*ImageSet, []uint8, error) {
	images, err := readFile(imagesPath, ReadImages)
	if err != nil {
		return nil, nil, err
	}
	labels, err := readFile(labelsPath, ReadLabels)
	if err != nil {
		return nil, nil, err
	}
	if len(labels) != images.Len() {
		return nil, nil, fmt.Errorf("mnist: %d images but %d labels", images.Len(), len(labels))
	}
	return images, labels, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	v, err := read(r)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// unexpected maps a clean EOF in the middle of a record to ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
