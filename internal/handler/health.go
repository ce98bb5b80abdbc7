package handler

import (
	"net/http"

	"github.com/Nthaan/Mini-Photoshop/internal/health"
)

// Health is a handler for health check status
func Health(healthChecker *health.Checker) Handler {
	return func(w http.ResponseWriter, r *http.Request) *Error {
		status := healthChecker.Status()

		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusInternalServerError
		}

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if err := WriteJSON(w, code, status); err != nil {
			return InternalServerError()
		}

		return nil
	}
}
