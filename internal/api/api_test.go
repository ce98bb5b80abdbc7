package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/Nthaan/Mini-Photoshop/internal/api"
	"github.com/Nthaan/Mini-Photoshop/internal/handler"
	"github.com/Nthaan/Mini-Photoshop/internal/health"
	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/image/native"
	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"go.uber.org/zap"

	mockProcessor "github.com/Nthaan/Mini-Photoshop/internal/image/mock"
	tracing "github.com/Nthaan/Mini-Photoshop/internal/tracing/test"
)

type slowProcessor struct{}

func (p *slowProcessor) ProcessImage(ctx context.Context, task *image.Task) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func fixture(t *testing.T, width, height int) []byte {
	t.Helper()

	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

// form builds a multipart body, leaving out the file part when file is nil
func form(t *testing.T, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if file != nil {
		part, err := writer.CreateFormFile("file", "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatal(err)
		}
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	return body, writer.FormDataContentType()
}

func processRequest(t *testing.T, file []byte, fields map[string]string) *http.Request {
	t.Helper()

	body, contentType := form(t, file, fields)
	req := httptest.NewRequest("POST", "/process", body)
	req.Header.Set("Content-Type", contentType)

	return req
}

func decodeResponse(t *testing.T, body []byte) map[string]string {
	t.Helper()

	var response map[string]string
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("invalid json %s: %s", body, err)
	}

	return response
}

func TestAPI(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer := tracing.Tracer(log)

	processor, err := native.New(ctx, log, tracer, 2, image.NewCodec(image.DefaultJPEGQuality))
	if err != nil {
		t.Fatal(err)
	}

	checker := &health.Checker{Ctx: ctx, Processor: processor, Log: log}
	checker.Run()

	router := (&api.API{
		ImageProcessor: processor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		HandlerTimeout: time.Minute,
	}).Router()

	tests := []struct {
		Name           string
		Fields         map[string]string
		ExpectedWidth  int
		ExpectedHeight int
	}{
		{"no parameters", nil, 4, 2},
		{"rotate 90", map[string]string{"rotate": "90"}, 2, 4},
		{"rotate 180", map[string]string{"rotate": "180"}, 4, 2},
		{"rotate 270", map[string]string{"rotate": "270"}, 2, 4},
		{"unsupported rotation", map[string]string{"rotate": "45"}, 4, 2},
		{"every filter", map[string]string{
			"brightness": "20",
			"contrast":   "1.4",
			"blur":       "4",
			"invert":     "true",
			"grayscale":  "true",
			"edge":       "true",
			"rotate":     "90",
		}, 2, 4},
		{"garbage parameters", map[string]string{"brightness": "very", "blur": "much"}, 4, 2},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, processRequest(t, fixture(t, 4, 2), test.Fields))

		if w.Code != http.StatusOK {
			t.Errorf("%s: wrong status code %#v", test.Name, w.Code)
			continue
		}

		if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
			t.Errorf("%s: wrong content type %#v", test.Name, contentType)
		}

		if cacheControl := w.Header().Get("Cache-Control"); cacheControl != "no-cache, no-store, must-revalidate" {
			t.Errorf("%s: wrong cache control %#v", test.Name, cacheControl)
		}

		if w.Header().Get(handler.RequestIDHeader) == "" {
			t.Errorf("%s: missing request id", test.Name)
		}

		response := decodeResponse(t, w.Body.Bytes())
		if _, ok := response["error"]; ok {
			t.Errorf("%s: unexpected error %s", test.Name, response["error"])
			continue
		}

		data, err := base64.StdEncoding.DecodeString(response["image"])
		if err != nil {
			t.Errorf("%s: invalid base64: %s", test.Name, err)
			continue
		}

		config, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Errorf("%s: response is not a jpeg: %s", test.Name, err)
			continue
		}

		if config.Width != test.ExpectedWidth || config.Height != test.ExpectedHeight {
			t.Errorf("%s: wrong dimensions %dx%d", test.Name, config.Width, config.Height)
		}
	}
}

func TestAPIErrors(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer := tracing.Tracer(log)

	processor, err := native.New(ctx, log, tracer, 1, image.NewCodec(image.DefaultJPEGQuality))
	if err != nil {
		t.Fatal(err)
	}

	checker := &health.Checker{Ctx: ctx, Processor: processor, Log: log}
	checker.Run()

	mockChecker := &health.Checker{Ctx: ctx, Processor: &mockProcessor.Processor{}, Log: log}
	mockChecker.Run()

	router := (&api.API{ImageProcessor: processor, HealthChecker: checker, Log: log, Tracer: tracer, HandlerTimeout: time.Minute}).Router()
	smallRouter := (&api.API{ImageProcessor: processor, HealthChecker: checker, Log: log, Tracer: tracer, HandlerTimeout: time.Minute, MaxUploadSize: 512}).Router()
	mockRouter := (&api.API{ImageProcessor: &mockProcessor.Processor{}, HealthChecker: mockChecker, Log: log, Tracer: tracer, HandlerTimeout: time.Minute}).Router()
	slowRouter := (&api.API{ImageProcessor: &slowProcessor{}, HealthChecker: checker, Log: log, Tracer: tracer, HandlerTimeout: 20 * time.Millisecond}).Router()

	largeUpload := make([]byte, 4096)

	tests := []struct {
		Name             string
		Request          func() *http.Request
		Router           http.Handler
		ExpectedStatus   int
		ExpectedResponse map[string]interface{}
	}{
		{
			Name:             "invalid image",
			Request:          func() *http.Request { return processRequest(t, []byte("definitely not an image"), nil) },
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: map[string]interface{}{"error": "Invalid image"},
		},
		{
			Name:             "empty file",
			Request:          func() *http.Request { return processRequest(t, []byte{}, map[string]string{"invert": "true"}) },
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: map[string]interface{}{"error": "Invalid image"},
		},
		{
			Name:             "missing file",
			Request:          func() *http.Request { return processRequest(t, nil, map[string]string{"invert": "true"}) },
			Router:           router,
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: map[string]interface{}{"error": "Missing file"},
		},
		{
			Name: "not a multipart form",
			Request: func() *http.Request {
				req := httptest.NewRequest("POST", "/process", bytes.NewBufferString("invert=true"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req
			},
			Router:           router,
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: map[string]interface{}{"error": "Invalid form data"},
		},
		{
			Name:             "upload too large",
			Request:          func() *http.Request { return processRequest(t, largeUpload, nil) },
			Router:           smallRouter,
			ExpectedStatus:   http.StatusRequestEntityTooLarge,
			ExpectedResponse: map[string]interface{}{"error": "Request body too large"},
		},
		{
			Name:             "processor failure",
			Request:          func() *http.Request { return processRequest(t, fixture(t, 2, 2), nil) },
			Router:           mockRouter,
			ExpectedStatus:   http.StatusInternalServerError,
			ExpectedResponse: map[string]interface{}{"error": "Something went wrong"},
		},
		{
			Name:             "processing timeout",
			Request:          func() *http.Request { return processRequest(t, fixture(t, 2, 2), nil) },
			Router:           slowRouter,
			ExpectedStatus:   http.StatusServiceUnavailable,
			ExpectedResponse: map[string]interface{}{"error": "Something went wrong. Timed out."},
		},
		{
			Name:             "unknown route",
			Request:          func() *http.Request { return httptest.NewRequest("GET", "/nothing/here", nil) },
			Router:           router,
			ExpectedStatus:   http.StatusNotFound,
			ExpectedResponse: map[string]interface{}{"error": "page not found"},
		},
		{
			Name:             "health",
			Request:          func() *http.Request { return httptest.NewRequest("GET", "/health", nil) },
			Router:           router,
			ExpectedStatus:   http.StatusOK,
			ExpectedResponse: map[string]interface{}{"healthy": true, "processor": "healthy"},
		},
		{
			Name:             "unhealthy",
			Request:          func() *http.Request { return httptest.NewRequest("GET", "/health", nil) },
			Router:           mockRouter,
			ExpectedStatus:   http.StatusInternalServerError,
			ExpectedResponse: map[string]interface{}{"healthy": false, "processor": "unhealthy"},
		},
	}

	for _, test := range tests {
		w := httptest.NewRecorder()
		test.Router.ServeHTTP(w, test.Request())

		if w.Code != test.ExpectedStatus {
			t.Errorf("%s: wrong status code %#v", test.Name, w.Code)
			continue
		}

		if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
			t.Errorf("%s: wrong content type %#v", test.Name, contentType)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Errorf("%s: invalid json %s", test.Name, w.Body.String())
			continue
		}

		if !reflect.DeepEqual(response, test.ExpectedResponse) {
			t.Errorf("%s: wrong response %#v", test.Name, response)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	router := (&api.API{ImageProcessor: &mockProcessor.Processor{}, Log: log, Tracer: tracing.Tracer(log), HandlerTimeout: time.Minute}).Router()

	req := httptest.NewRequest("OPTIONS", "/process", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Errorf("wrong status code %#v", w.Code)
	}

	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("wrong allowed origin %#v", origin)
	}

	if methods := w.Header().Get("Access-Control-Allow-Methods"); methods != "POST" {
		t.Errorf("wrong allowed methods %#v", methods)
	}
}

func TestProcessEncodesBase64JPEG(t *testing.T) {
	log := logger.New(zap.FatalLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor, err := native.New(ctx, log, tracing.Tracer(log), 1, image.NewCodec(image.DefaultJPEGQuality))
	if err != nil {
		t.Fatal(err)
	}

	router := (&api.API{ImageProcessor: processor, Log: log, Tracer: tracing.Tracer(log), HandlerTimeout: time.Minute}).Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, processRequest(t, fixture(t, 3, 3), map[string]string{"grayscale": "1"}))

	response := decodeResponse(t, w.Body.Bytes())
	data, err := base64.StdEncoding.DecodeString(response["image"])
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	r, g, b, _ := decoded.At(1, 1).RGBA()
	if diff(r, g) > 4<<8 || diff(g, b) > 4<<8 {
		t.Errorf("grayscale output has colored pixel %d %d %d", r>>8, g>>8, b>>8)
	}
}

func diff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
