package handler

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSOptions configures cross-origin access
// An empty AllowedOrigins allows every origin, which is only meant for development.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

var corsMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// CORS is a handler for setting CORS headers and answering preflight requests
func CORS(opts CORSOptions, next http.Handler) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   corsMethods,
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: opts.AllowCredentials,
	}).Handler(next)
}
