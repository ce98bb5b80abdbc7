package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/Nthaan/Mini-Photoshop/internal/handler"
	"github.com/Nthaan/Mini-Photoshop/internal/image"
	"github.com/Nthaan/Mini-Photoshop/internal/image/filter"
	"github.com/Nthaan/Mini-Photoshop/internal/params"
)

// ProcessResponse is the body of a successful process request
type ProcessResponse struct {
	Image string `json:"image"`
}

// Multipart parts above this size are spooled to disk by net/http
const maxFormMemory = 8 << 20

func (a *API) processHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadSize())
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		if bodyTooLarge(err, r.Body) {
			return handler.RequestTooLarge()
		}

		return handler.BadRequest("Invalid form data")
	}
	defer r.MultipartForm.RemoveAll()

	source, err := readFile(r)
	if err != nil {
		return handler.BadRequest("Missing file")
	}

	p, ignored := params.GetParams(r)
	if len(ignored) > 0 {
		a.logDebug(r, "ignoring unparsable parameters", "params", ignored)
	}

	processedImage, err := a.ImageProcessor.ProcessImage(r.Context(), image.NewTask(source, p))
	if errors.Is(err, image.ErrInvalidImage) {
		a.logDebug(r, "invalid image uploaded", "error", err)
		return a.writeJSON(w, r, handler.ErrorResponse{Error: image.ErrInvalidImage.Error()})
	}

	if err != nil {
		a.logError(r, "error processing image", err)
		return handler.InternalServerError()
	}

	a.logDebug(r, "processed image", "filters", filter.Applied(p), "bytes", len(processedImage))

	return a.writeJSON(w, r, ProcessResponse{
		Image: base64.StdEncoding.EncodeToString(processedImage),
	})
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) *handler.Error {
	if err := handler.WriteJSON(w, http.StatusOK, v); err != nil {
		a.logError(r, "error writing response", err)
	}

	return nil
}

func readFile(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile(params.FieldFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// bodyTooLarge reports whether the upload limit was hit
// mime/multipart does not always wrap the underlying read error, but the limited body keeps returning it.
func bodyTooLarge(err error, body io.Reader) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	_, err = body.Read(make([]byte, 1))
	return errors.As(err, &maxBytesErr)
}
