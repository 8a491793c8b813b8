// Package apperror defines the error kinds shared by stores, services and HTTP
// handlers, and how each kind maps to an HTTP response.
package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
)

// Error carries a client-facing message and unwraps to one of the sentinels.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthorized(message string) *Error {
	return &Error{Err: ErrUnauthorized, Message: message}
}

// NotFound builds "<resource> not found".
func NotFound(resource string) *Error {
	return &Error{Err: ErrNotFound, Message: resource + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Err: ErrConflict, Message: message}
}

func Validation(message string) *Error {
	return &Error{Err: ErrValidation, Message: message}
}

// Response is the JSON body written for every failed request.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusCode maps err to an HTTP status. Unknown errors are 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show a client. Internal failures
// never leak their cause.
func PublicMessage(err error) string {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}

	return http.StatusText(status)
}

// ToResponse converts err into the response body and its status.
func ToResponse(err error) (int, Response) {
	status := StatusCode(err)
	return status, Response{Status: status, Message: PublicMessage(err)}
}
