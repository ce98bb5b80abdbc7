package health

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

// Component states reported in Status
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusUnknown   = "unknown"
)

// Checker is a periodic health checker
type Checker struct {
	Ctx       context.Context
	Processor image.Processor
	Log       *logger.Logger
	status    Status
	mutex     sync.RWMutex
}

// Status contains the healthcheck status
type Status struct {
	Healthy   bool   `json:"healthy"`
	Processor string `json:"processor"`
}

// Run starts the health checker
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the health checks
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) setStatus(status Status) {
	c.mutex.Lock()
	c.status = status
	c.mutex.Unlock()
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(c.Ctx, checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go c.check(ctx, channel)

	select {
	case <-ctx.Done():
		c.setStatus(Status{Healthy: false, Processor: StatusUnknown})
		c.Log.Errorw("healthcheck timed out")
	case status := <-channel:
		c.setStatus(status)
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

// checkParams turn on every step so the whole pipeline is exercised
var checkParams = image.Params{
	Brightness: 10,
	Contrast:   1.2,
	Blur:       3,
	Invert:     true,
	Grayscale:  true,
	Edge:       true,
	Rotate:     90,
}

func (c *Checker) check(ctx context.Context, channel chan<- Status) {
	task := image.NewTask(checkImage, checkParams)
	task.Origin = image.OriginHealthCheck

	_, err := c.Processor.ProcessImage(ctx, task)

	// Let the timeout win over a result caused by it
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		channel <- Status{Healthy: false, Processor: StatusUnhealthy}
		return
	}

	channel <- Status{Healthy: true, Processor: StatusHealthy}
}

var checkImage = func() []byte {
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}

	return buf.Bytes()
}()
