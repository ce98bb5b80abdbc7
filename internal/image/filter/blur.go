package filter

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// maxKernelSize bounds the kernel built for a requested blur, larger sizes are clamped to it
const maxKernelSize = 1<<16 + 1

// Precomputed kernels used for the smallest sizes when sigma is derived from the size
var smallGaussianKernels = [][]float64{
	{1},
	{0.25, 0.5, 0.25},
	{0.0625, 0.25, 0.375, 0.25, 0.0625},
	{0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// KernelSize returns the gaussian kernel size used for the requested blur
// Even sizes are rounded up to the next odd size, sizes of 1 or less disable the blur
func KernelSize(size int) int {
	if size <= 1 {
		return 1
	}

	if size%2 == 0 {
		size++
	}

	if size > maxKernelSize {
		return maxKernelSize
	}

	return size
}

// Blur applies a separable gaussian blur with a kernel of the given size
// Sigma is derived from the kernel size. Borders are mirrored without repeating the edge pixel (dcb|abcd|cba).
func Blur(grid *image.NRGBA, size int) *image.NRGBA {
	size = KernelSize(size)
	if size == 1 {
		return grid
	}

	bounds := grid.Bounds()
	weights := gaussianKernel(size)
	horizontal := foldKernel(weights, bounds.Dx())
	vertical := foldKernel(weights, bounds.Dy())

	padX, padY := len(horizontal)/2, len(vertical)/2
	padded := padReflect101(grid, padX, padY)

	kernelX := convolution.NewKernel(len(horizontal), 1)
	copy(kernelX.Matrix, horizontal)
	kernelY := convolution.NewKernel(1, len(vertical))
	copy(kernelY.Matrix, vertical)

	// The convolution truncates, the bias makes it round to nearest
	options := &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}
	result := convolution.Convolve(padded, kernelX, options)
	result = convolution.Convolve(result, kernelY, options)

	return imaging.Crop(result, image.Rect(padX, padY, padX+bounds.Dx(), padY+bounds.Dy()))
}

// gaussianKernel returns the normalized 1D kernel of the given odd size
func gaussianKernel(size int) []float64 {
	if size/2 < len(smallGaussianKernels) {
		kernel := make([]float64, size)
		copy(kernel, smallGaussianKernels[size/2])
		return kernel
	}

	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	scale := -0.5 / (sigma * sigma)

	kernel := make([]float64, size)
	center := size / 2
	sum := 0.0
	for i := range kernel {
		x := float64(i - center)
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// foldKernel folds taps that reach past one mirror period back into it, for a line of n pixels
// Mirrored borders repeat every 2*(n-1) pixels, so a folded tap reads the same sample as the original one.
func foldKernel(kernel []float64, n int) []float64 {
	radius := len(kernel) / 2
	if n <= 1 {
		return []float64{1}
	}

	limit := n - 1
	if radius <= limit {
		return kernel
	}

	period := 2 * limit
	folded := make([]float64, 2*limit+1)
	for i, w := range kernel {
		offset := ((i-radius+limit)%period+period)%period - limit
		folded[offset+limit] += w
	}

	return folded
}

// padReflect101 returns a copy of grid with padX columns and padY rows mirrored onto each side
func padReflect101(grid *image.NRGBA, padX, padY int) *image.NRGBA {
	bounds := grid.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	padded := image.NewNRGBA(image.Rect(0, 0, width+2*padX, height+2*padY))
	for y := 0; y < height+2*padY; y++ {
		sy := reflect101(y-padY, height)
		for x := 0; x < width+2*padX; x++ {
			sx := reflect101(x-padX, width)

			src := grid.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
			dst := padded.PixOffset(x, y)
			copy(padded.Pix[dst:dst+4], grid.Pix[src:src+4])
		}
	}

	return padded
}

// reflect101 maps p onto [0, n) mirroring at both ends without repeating the edge
func reflect101(p, n int) int {
	if n <= 1 {
		return 0
	}

	period := 2 * (n - 1)
	p %= period
	if p < 0 {
		p += period
	}

	if p >= n {
		p = period - p
	}

	return p
}
