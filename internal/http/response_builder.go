// Package http exposes the tracker as a JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every body is a JSON object; mutations that were applied but not persisted
// carry a "warning" member next to their payload.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       map[string]any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		body:       make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Set adds a top-level member to the body.
func (b *JSONResponseBuilder) Set(key string, value any) *JSONResponseBuilder {
	b.body[key] = value
	return b
}

// Warning records a persistence failure next to the payload. A nil err is
// ignored.
func (b *JSONResponseBuilder) Warning(err error) *JSONResponseBuilder {
	if err != nil {
		b.body["warning"] = "saved for this session only: " + err.Error()
	}
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Set("error", message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationErrorResponse creates a 422 naming the offending field.
func ValidationErrorResponse(err error) *JSONResponseBuilder {
	b := ErrorResponse(http.StatusUnprocessableEntity, err.Error())
	var ve *core.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		b.Set("field", ve.Field)
	}
	return b
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// writeError maps an error from the tracker or the request parser onto a
// response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	var tooLarge *http.MaxBytesError
	switch {
	case core.IsValidation(err):
		ValidationErrorResponse(err).Write(w)
	case core.IsNotFound(err):
		NotFoundError(err.Error()).Write(w)
	case errors.As(err, &tooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
	case errors.As(err, &reqErr):
		BadRequestError(reqErr.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.NewFields().
				WithComponent(log.ComponentHTTP).
				WithError(err).
				WithErrorType(log.ErrorTypeInternal).
				ToSlice()...)
		InternalServerError("internal error").Write(w)
	}
}
