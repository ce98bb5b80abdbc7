package image

// Params are the filter parameters for a single request
// The zero value is not the identity, use DefaultParams
type Params struct {
	Brightness int     // Offset added to the HSV value channel
	Contrast   float64 // Multiplier applied to every channel
	Blur       int     // Gaussian kernel size, even sizes are rounded up
	Invert     bool
	Grayscale  bool
	Edge       bool
	Rotate     int // Degrees clockwise, only 90, 180 and 270 have an effect
}

// Defaults for every parameter, each of them leaves the image untouched
const (
	DefaultBrightness = 0
	DefaultContrast   = 1.0
	DefaultBlur       = 1
	DefaultRotate     = 0
)

// DefaultParams returns the parameters that leave an image unchanged
func DefaultParams() Params {
	return Params{
		Brightness: DefaultBrightness,
		Contrast:   DefaultContrast,
		Blur:       DefaultBlur,
		Rotate:     DefaultRotate,
	}
}

// Where a task comes from, used to keep internal work apart in metrics
const (
	OriginRequest     = "request"
	OriginHealthCheck = "healthcheck"
)

// Task is an image processing task
type Task struct {
	Source []byte
	Params Params
	Origin string
}

// NewTask creates a new image processing task for the given source image
func NewTask(source []byte, params Params) *Task {
	return &Task{
		Source: source,
		Params: params,
		Origin: OriginRequest,
	}
}
