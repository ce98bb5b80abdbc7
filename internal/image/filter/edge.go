package filter

import (
	"image"

	"github.com/disintegration/imaging"
)

// Hysteresis thresholds for edge detection, on the L1 sobel gradient magnitude
const (
	EdgeLowThreshold  = 100
	EdgeHighThreshold = 200
)

// tan(22.5°) and tan(67.5°) for quantising the gradient direction
const (
	tan22 = 0.41421356237309503
	tan67 = 2.414213562373095
)

const (
	edgeCandidate = iota
	edgeNone
	edgeStrong
)

// Edges runs canny edge detection on the luma of grid
// Edge pixels are white, everything else is black, on all three channels
func Edges(grid *image.NRGBA) *image.NRGBA {
	return canny(grid, EdgeLowThreshold, EdgeHighThreshold)
}

func canny(grid *image.NRGBA, low, high int) *image.NRGBA {
	bounds := grid.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := imaging.Grayscale(grid)
	luma := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			luma[y*width+x] = int(gray.Pix[y*gray.Stride+x*4])
		}
	}

	at := func(x, y int) int {
		return luma[clampInt(y, 0, height-1)*width+clampInt(x, 0, width-1)]
	}

	// Sobel gradients with replicated borders
	gradX := make([]int, width*height)
	gradY := make([]int, width*height)
	magnitude := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) - at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)

			i := y*width + x
			gradX[i], gradY[i] = gx, gy
			magnitude[i] = abs(gx) + abs(gy)
		}
	}

	mag := func(x, y int) int {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return magnitude[y*width+x]
	}

	// Non-maximum suppression and double threshold
	edges := make([]uint8, width*height)
	var stack []int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			m := magnitude[i]
			edges[i] = edgeNone

			if m <= low {
				continue
			}

			gx, gy := gradX[i], gradY[i]
			ax, ay := float64(abs(gx)), float64(abs(gy))

			var isMax bool
			switch {
			case ay <= ax*tan22:
				isMax = m > mag(x-1, y) && m >= mag(x+1, y)
			case ay >= ax*tan67:
				isMax = m > mag(x, y-1) && m >= mag(x, y+1)
			default:
				s := 1
				if (gx < 0) != (gy < 0) {
					s = -1
				}
				isMax = m > mag(x-s, y-1) && m > mag(x+s, y+1)
			}

			if !isMax {
				continue
			}

			if m > high {
				edges[i] = edgeStrong
				stack = append(stack, i)
			} else {
				edges[i] = edgeCandidate
			}
		}
	}

	// Hysteresis: candidates connected to a strong edge become edges
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}

				n := ny*width + nx
				if edges[n] == edgeCandidate {
					edges[n] = edgeStrong
					stack = append(stack, n)
				}
			}
		}
	}

	result := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v uint8
			if edges[y*width+x] == edgeStrong {
				v = 255
			}

			p := result.Pix[y*result.Stride+x*4 : y*result.Stride+x*4+4 : y*result.Stride+x*4+4]
			p[0], p[1], p[2], p[3] = v, v, v, 255
		}
	}

	return result
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
