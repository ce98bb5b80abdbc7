package native

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/image/filter"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"github.com/Nthaan/Mini-Photoshop/internal/queue"
	"github.com/Nthaan/Mini-Photoshop/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
)

// Codec is the decoder/encoder pair used by the processor
type Codec interface {
	image.Decoder
	image.Encoder
}

// Processor is an image processor that runs the filter pipeline in pure Go on a worker queue
type Processor struct {
	queue  *queue.Queue
	tracer *tracing.Tracer
}

var (
	queueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "image_processor_queue_size",
		Help: "Number of images waiting for or being processed.",
	})
	processedImages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_processor_processed_images_total",
		Help: "Number of processed images by outcome and task origin.",
	}, []string{"outcome", "origin"})
	filterApplications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_processor_filter_applications_total",
		Help: "Number of times each filter was applied, by task origin.",
	}, []string{"filter", "origin"})
)

// New initializes a new processor instance, and starts its workers
// The workers stop when ctx is done
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, codec Codec) (*Processor, error) {
	if codec == nil {
		return nil, fmt.Errorf("no codec")
	}

	workerQueue := queue.New(ctx, workers, taskProcessor(tracer, codec))
	instance := &Processor{
		queue:  workerQueue,
		tracer: tracer,
	}

	go workerQueue.Run()
	log.Infof("starting image worker queue with %d workers", workers)

	return instance, nil
}

// ProcessImage decodes the task source, applies the filters, and returns the JPEG encoded result
// Undecodable sources return an error wrapping image.ErrInvalidImage
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "native.ProcessImage")
	defer span.End()

	queueSize.Inc()
	defer queueSize.Dec()

	defer func() {
		processedImages.WithLabelValues(outcome(err), origin(task)).Inc()
	}()

	result, err := p.queue.Process(ctx, task)
	if err != nil {
		return nil, err
	}

	processed, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return processed, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, image.ErrInvalidImage):
		return "invalid"
	default:
		return "error"
	}
}

func origin(task *image.Task) string {
	if task.Origin == "" {
		return image.OriginRequest
	}

	return task.Origin
}

func taskProcessor(tracer *tracing.Tracer, codec Codec) queue.HandlerFunc {
	return func(ctx context.Context, data interface{}) (interface{}, error) {
		task, ok := data.(*image.Task)
		if !ok {
			return nil, fmt.Errorf("invalid data")
		}

		_, span := tracer.Start(ctx, "native.decode")
		grid, err := codec.Decode(task.Source)
		span.End()
		if err != nil {
			return nil, err
		}

		filters := filter.Applied(task.Params)
		_, span = tracer.Start(ctx, "native.filter")
		span.SetAttributes(
			attribute.StringSlice("filters", filters),
			attribute.Int("width", grid.Bounds().Dx()),
			attribute.Int("height", grid.Bounds().Dy()),
		)
		grid = filter.Apply(grid, task.Params)
		span.End()

		for _, name := range filters {
			filterApplications.WithLabelValues(name, origin(task)).Inc()
		}

		_, span = tracer.Start(ctx, "native.encode")
		buffer, err := codec.Encode(grid)
		span.End()
		if err != nil {
			return nil, err
		}

		return buffer, nil
	}
}

// Shutdown shuts down the image processor
// The worker queue stops with the context passed to New, there is nothing else to release
func (p *Processor) Shutdown() {}
