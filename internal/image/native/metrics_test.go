package native

import (
	"bytes"
	"context"
	stdimage "image"
	"image/png"
	"testing"

	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"github.com/Nthaan/Mini-Photoshop/internal/tracing/test"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestMetricsByOrigin(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor, err := New(ctx, log, test.Tracer(log), 1, image.NewCodec(image.DefaultJPEGQuality))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, stdimage.NewNRGBA(stdimage.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}

	p := image.DefaultParams()
	p.Invert = true

	requests := testutil.ToFloat64(processedImages.WithLabelValues("success", image.OriginRequest))
	checks := testutil.ToFloat64(processedImages.WithLabelValues("success", image.OriginHealthCheck))
	requestInverts := testutil.ToFloat64(filterApplications.WithLabelValues("invert", image.OriginRequest))
	checkInverts := testutil.ToFloat64(filterApplications.WithLabelValues("invert", image.OriginHealthCheck))

	task := image.NewTask(buf.Bytes(), p)
	task.Origin = image.OriginHealthCheck
	if _, err := processor.ProcessImage(context.Background(), task); err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(processedImages.WithLabelValues("success", image.OriginRequest)); v != requests {
		t.Errorf("health check counted as a request, %v", v)
	}
	if v := testutil.ToFloat64(processedImages.WithLabelValues("success", image.OriginHealthCheck)); v != checks+1 {
		t.Errorf("wrong health check count %v", v)
	}
	if v := testutil.ToFloat64(filterApplications.WithLabelValues("invert", image.OriginRequest)); v != requestInverts {
		t.Errorf("health check filters counted as a request, %v", v)
	}
	if v := testutil.ToFloat64(filterApplications.WithLabelValues("invert", image.OriginHealthCheck)); v != checkInverts+1 {
		t.Errorf("wrong health check filter count %v", v)
	}

	if _, err := processor.ProcessImage(context.Background(), image.NewTask(buf.Bytes(), p)); err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(processedImages.WithLabelValues("success", image.OriginRequest)); v != requests+1 {
		t.Errorf("wrong request count %v", v)
	}
}
