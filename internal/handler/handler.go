package handler

import (
	"encoding/json"
	"net/http"
)

// Error is the message and http status code to return
type Error struct {
	Message string
	Code    int
}

// InternalServerError is a convenience function for returning an internal server error
func InternalServerError() *Error {
	return &Error{
		Message: "Something went wrong",
		Code:    http.StatusInternalServerError,
	}
}

// BadRequest is a convenience function for returning a bad request error
func BadRequest(message string) *Error {
	return &Error{
		Message: message,
		Code:    http.StatusBadRequest,
	}
}

// RequestTooLarge is a convenience function for returning an error for oversized uploads
func RequestTooLarge() *Error {
	return &Error{
		Message: "Request body too large",
		Code:    http.StatusRequestEntityTooLarge,
	}
}

// NotFound is a convenience function for returning a not found error
func NotFound() *Error {
	return &Error{
		Message: "page not found",
		Code:    http.StatusNotFound,
	}
}

// Handler wraps a http handler and deals with responding to errors
type Handler func(w http.ResponseWriter, r *http.Request) *Error

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		writeError(w, err)
	}
}

// ErrorResponse is the body written for errors
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if encodeErr := WriteJSON(w, err.Code, ErrorResponse{err.Message}); encodeErr != nil {
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
	}
}

// WriteJSON writes v as a JSON body with the given status code
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err = w.Write(append(body, '\n'))
	return err
}
