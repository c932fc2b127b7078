// Package imaging turns uploaded leaf photos into classifier input.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/agrisense/backend/pkg/errors"
)

const channels = 3

// Tensor is a single-item batch in NHWC layout with values scaled into [0,1].
type Tensor struct {
	Height int
	Width  int
	Data   []float32
}

// Shape returns the batch shape [1, H, W, C].
func (t *Tensor) Shape() []int {
	return []int{1, t.Height, t.Width, channels}
}

// Pixel returns the RGB triple at (y, x).
func (t *Tensor) Pixel(y, x int) [channels]float32 {
	off := (y*t.Width + x) * channels
	return [channels]float32{t.Data[off], t.Data[off+1], t.Data[off+2]}
}

// Instance renders the tensor as nested rows for JSON transports.
func (t *Tensor) Instance() [][][channels]float32 {
	rows := make([][][channels]float32, t.Height)
	for y := 0; y < t.Height; y++ {
		row := make([][channels]float32, t.Width)
		for x := 0; x < t.Width; x++ {
			row[x] = t.Pixel(y, x)
		}
		rows[y] = row
	}
	return rows
}

// Preprocess decodes raw image bytes, converts them to RGB, resizes to size×size
// with nearest-neighbour sampling and scales every channel into [0,1].
// Undecodable input yields an INVALID_IMAGE AppError.
func Preprocess(data []byte, size int) (*Tensor, error) {
	if len(data) == 0 {
		return nil, apperrors.NewInvalidImageError(image.ErrFormat)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewInvalidImageError(err)
	}
	if b := src.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, apperrors.NewInvalidImageError(image.ErrFormat)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	tensor := &Tensor{
		Height: size,
		Width:  size,
		Data:   make([]float32, size*size*channels),
	}
	i := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := dst.RGBAAt(x, y)
			tensor.Data[i] = float32(c.R) / 255.0
			tensor.Data[i+1] = float32(c.G) / 255.0
			tensor.Data[i+2] = float32(c.B) / 255.0
			i += channels
		}
	}

	return tensor, nil
}
