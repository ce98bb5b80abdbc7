package api

import (
	"net/http"
	"time"

	"github.com/Nthaan/Mini-Photoshop/internal/handler"
	"github.com/Nthaan/Mini-Photoshop/internal/health"
	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"github.com/Nthaan/Mini-Photoshop/internal/tracing"
	"github.com/gorilla/mux"
)

// DefaultMaxUploadSize is the largest accepted request body
const DefaultMaxUploadSize = 32 << 20

// API is a http api
type API struct {
	ImageProcessor image.Processor
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	HandlerTimeout time.Duration
	MaxUploadSize  int64
	CORS           handler.CORSOptions
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

func (a *API) logDebug(r *http.Request, message string, keysAndValues ...interface{}) {
	a.Log.Debugw(message, handler.LogFields(r, keysAndValues...)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET").Name("health")

	// Form fields:
	// file - The image to process
	// brightness, contrast, blur, invert, grayscale, edge, rotate - The filters to apply
	router.Handle("/process", handler.Handler(a.processHandler)).Methods("POST").Name("process")

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, setting CORS headers, metrics, tracing and handler execution timeout
	timeout := handler.Timeout(router, a.HandlerTimeout)
	traced := handler.Tracer(a.Tracer, timeout, routeMatcher)
	measured := handler.Metrics(traced, routeMatcher)

	return handler.AddRequestID(handler.Recovery(a.Log, handler.Logger(a.Log, handler.CORS(a.CORS, measured))))
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return handler.NotFound()
}

func (a *API) maxUploadSize() int64 {
	if a.MaxUploadSize <= 0 {
		return DefaultMaxUploadSize
	}

	return a.MaxUploadSize
}
