package handler

import (
	"net/http"
	"time"
)

const timeoutBody = "{\"error\":\"Something went wrong. Timed out.\"}\n"

// Timeout answers with a JSON 503 when h doesn't complete within dt
func Timeout(h http.Handler, dt time.Duration) http.Handler {
	timeoutHandler := http.TimeoutHandler(h, dt, timeoutBody)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The timeout response only carries the headers already set on w, headers set by h replace these
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		timeoutHandler.ServeHTTP(w, r)
	})
}
