// Package filter implements the image filter pipeline.
//
// Every filter takes an opaque, zero-origin *image.NRGBA grid and returns a
// grid of the same kind. Filters at their no-op value return the input grid
// unchanged. Apply is the only place the order of the filters is defined.
package filter

import (
	"image"

	photoshop "github.com/Nthaan/Mini-Photoshop/internal/image"
)

// Filter names, in pipeline order
const (
	NameBrightness = "brightness"
	NameContrast   = "contrast"
	NameBlur       = "blur"
	NameGrayscale  = "grayscale"
	NameInvert     = "invert"
	NameEdge       = "edge"
	NameRotate     = "rotate"
)

// Apply runs the filter pipeline on grid
// The order is fixed: brightness, contrast, blur, grayscale, invert, edge detection, rotation
func Apply(grid *image.NRGBA, p photoshop.Params) *image.NRGBA {
	grid = Brightness(grid, p.Brightness)
	grid = Contrast(grid, p.Contrast)
	grid = Blur(grid, p.Blur)

	if p.Grayscale {
		grid = Grayscale(grid)
	}

	if p.Invert {
		grid = Invert(grid)
	}

	if p.Edge {
		grid = Edges(grid)
	}

	return Rotate(grid, p.Rotate)
}

// Applied returns the names of the filters Apply runs for p, in order
func Applied(p photoshop.Params) []string {
	var names []string

	if p.Brightness != 0 {
		names = append(names, NameBrightness)
	}
	if p.Contrast != 1.0 {
		names = append(names, NameContrast)
	}
	if p.Blur > 1 {
		names = append(names, NameBlur)
	}
	if p.Grayscale {
		names = append(names, NameGrayscale)
	}
	if p.Invert {
		names = append(names, NameInvert)
	}
	if p.Edge {
		names = append(names, NameEdge)
	}
	switch p.Rotate {
	case 90, 180, 270:
		names = append(names, NameRotate)
	}

	return names
}
