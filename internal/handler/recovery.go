package handler

import (
	"net/http"
	"runtime/debug"

	"github.com/Nthaan/Mini-Photoshop/internal/logger"
	"github.com/Nthaan/Mini-Photoshop/internal/tracing"
)

// Recovery is a handler for handling panics
func Recovery(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}

			if err == http.ErrAbortHandler {
				panic(err)
			}

			traceID, spanID := tracing.TraceInfo(r.Context())
			log.Errorw("panic handling request", LogFields(r,
				"panic", err,
				"trace-id", traceID,
				"span-id", spanID,
				"stacktrace", string(debug.Stack()),
			)...)

			writeError(w, InternalServerError())
		}()

		next.ServeHTTP(w, r)
	})
}
