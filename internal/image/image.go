package image

import (
	"context"
	"errors"
)

// ErrInvalidImage is returned when the source bytes can't be decoded to an image
var ErrInvalidImage = errors.New("Invalid image")

// Processor is an image processor
type Processor interface {
	// ProcessImage decodes the task source, applies the filters and returns the encoded result
	ProcessImage(ctx context.Context, task *Task) ([]byte, error)
}
