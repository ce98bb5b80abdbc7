package filter

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rotate rotates the grid clockwise by degrees
// Only 90, 180 and 270 rotate, every other value returns the grid unchanged
func Rotate(grid *image.NRGBA, degrees int) *image.NRGBA {
	// imaging rotates counter-clockwise
	switch degrees {
	case 90:
		return imaging.Rotate270(grid)
	case 180:
		return imaging.Rotate180(grid)
	case 270:
		return imaging.Rotate90(grid)
	}

	return grid
}
