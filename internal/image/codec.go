package image

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/draw"

	"github.com/disintegration/imaging"

	// imaging registers jpeg, png, gif, bmp and tiff
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality is the quality used when encoding results
const DefaultJPEGQuality = 95

// Decoder decodes image bytes into an opaque pixel grid
type Decoder interface {
	Decode(data []byte) (*stdimage.NRGBA, error)
}

// Encoder encodes a pixel grid into image bytes
type Encoder interface {
	Encode(grid *stdimage.NRGBA) ([]byte, error)
}

// Codec decodes any supported format and encodes to JPEG
type Codec struct {
	Quality int
}

// NewCodec returns a codec encoding at the given JPEG quality
func NewCodec(quality int) *Codec {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	return &Codec{Quality: quality}
}

// Decode decodes data into a pixel grid with the alpha channel dropped
// Any failure is reported as ErrInvalidImage
func (c *Codec) Decode(data []byte) (*stdimage.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	img, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	return Opaque(img), nil
}

// decoders can panic on some malformed inputs
func decode(data []byte) (img stdimage.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("decoder panic: %v", r)
		}
	}()

	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// Encode encodes the grid as a JPEG
func (c *Codec) Encode(grid *stdimage.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, grid, imaging.JPEG, imaging.JPEGQuality(c.Quality)); err != nil {
		return nil, fmt.Errorf("error encoding jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// Opaque copies img into a new zero-origin grid with every alpha sample set to 255
// The colour samples are kept as stored, transparency is discarded rather than composited
func Opaque(img stdimage.Image) *stdimage.NRGBA {
	bounds := img.Bounds()
	grid := stdimage.NewNRGBA(stdimage.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if src, ok := img.(*stdimage.NRGBA); ok {
		for y := 0; y < bounds.Dy(); y++ {
			copy(grid.Pix[y*grid.Stride:y*grid.Stride+bounds.Dx()*4], src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):])
		}
	} else {
		draw.Draw(grid, grid.Bounds(), img, bounds.Min, draw.Src)
	}

	for i := 3; i < len(grid.Pix); i += 4 {
		grid.Pix[i] = 255
	}

	return grid
}
