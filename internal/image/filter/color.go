package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Brightness adds offset to the HSV value channel of every pixel
// The value channel saturates at 0 and 255
func Brightness(grid *image.NRGBA, offset int) *image.NRGBA {
	if offset == 0 {
		return grid
	}

	// Anything past a full swing saturates every pixel, so clamping first avoids overflow
	offset = clampInt(offset, -255, 255)

	return imaging.AdjustFunc(grid, func(c color.NRGBA) color.NRGBA {
		h, s, v := colorful.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
		}.Hsv()

		value := clampInt(int(math.Round(v*255))+offset, 0, 255)
		r, g, b := colorful.Hsv(h, s, float64(value)/255).Clamped().RGB255()

		return color.NRGBA{R: r, G: g, B: b, A: c.A}
	})
}

// Contrast scales every channel sample by factor
// The result is the saturated absolute value, so negative factors mirror rather than wrap
func Contrast(grid *image.NRGBA, factor float64) *image.NRGBA {
	if factor == 1.0 {
		return grid
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = saturate(math.Abs(float64(i) * factor))
	}

	return imaging.AdjustFunc(grid, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}

// Grayscale replaces every pixel with its BT.601 luma, on all three channels
func Grayscale(grid *image.NRGBA) *image.NRGBA {
	return imaging.Grayscale(grid)
}

// Invert replaces every channel sample x with 255 - x
func Invert(grid *image.NRGBA) *image.NRGBA {
	return imaging.Invert(grid)
}

func saturate(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}

	return uint8(math.RoundToEven(v))
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
