package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/Nthaan/Mini-Photoshop/internal/api"
	"github.com/Nthaan/Mini-Photoshop/internal/cmd"
	"github.com/Nthaan/Mini-Photoshop/internal/handler"
	"github.com/Nthaan/Mini-Photoshop/internal/health"
	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/image/native"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"github.com/Nthaan/Mini-Photoshop/internal/metrics"
	"github.com/Nthaan/Mini-Photoshop/internal/tracing"

	"github.com/jamiealquiza/envy"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8000", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Processing
	workers       = flag.Int("workers", 0, "number of images processed concurrently (default GOMAXPROCS)")
	jpegQuality   = flag.Int("jpeg-quality", image.DefaultJPEGQuality, "quality of the returned jpeg images (1-100)")
	maxUploadSize = flag.Int64("max-upload-size", api.DefaultMaxUploadSize, "maximum request body size in bytes")

	// CORS
	corsAllowedOrigins   = flag.String("cors-allowed-origins", "*", "comma separated list of allowed origins, \"*\" allows all and is meant for development")
	corsAllowCredentials = flag.Bool("cors-allow-credentials", false, "allow credentials in cross-origin requests")

	// Tracing
	tracingEnabled     = flag.Bool("tracing", false, "export traces over OTLP/gRPC, configured through the OTEL_EXPORTER_OTLP_* environment variables")
	tracingServiceName = flag.String("tracing-service-name", "mini-photoshop", "service name reported in traces")
)

func main() {
	// Parse environment variables
	envy.Parse("PHOTOSHOP")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	if err := run(log); err != nil {
		log.Fatalf("%s", err)
	}
}

func run(log *logger.Logger) error {
	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer, err := setupTracer(shutdownCtx, log)
	if err != nil {
		return fmt.Errorf("error initializing tracing: %w", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the image processor
	imageProcessorCtx, imageProcessorCancel := context.WithCancel(context.Background())
	defer imageProcessorCancel()

	workerCount := *workers
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}

	imageProcessor, err := native.New(imageProcessorCtx, log, tracer, workerCount, image.NewCodec(*jpegQuality))
	if err != nil {
		return fmt.Errorf("error initializing image processor: %w", err)
	}
	defer imageProcessor.Shutdown()

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:       checkerCtx,
		Processor: imageProcessor,
		Log:       log,
	}
	go checker.Run()

	// Start and listen on http
	api := &api.API{
		ImageProcessor: imageProcessor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		HandlerTimeout: cmd.HandlerTimeout,
		MaxUploadSize:  *maxUploadSize,
		CORS: handler.CORSOptions{
			AllowedOrigins:   splitList(*corsAllowedOrigins),
			AllowCredentials: *corsAllowCredentials,
		},
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	g, ctx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		log.Infof("http server listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return metrics.Serve(ctx, log, checker, *metricsListen)
	})

	g.Go(func() error {
		// Wait for shutdown or error
		err := cmd.WaitForInterrupt(ctx)
		log.Infof("shutting down: %s", err)

		// Shut down http server
		serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
		defer serverCancel()
		if err := server.Shutdown(serverCtx); err != nil {
			log.Warnf("error shutting down: %s", err)
		}

		shutdown()
		return nil
	})

	return g.Wait()
}

func setupTracer(ctx context.Context, log *logger.Logger) (*tracing.Tracer, error) {
	if !*tracingEnabled {
		return tracing.Noop(log, *tracingServiceName), nil
	}

	return tracing.New(ctx, log, *tracingServiceName)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
