package apperror

import (
	"errors"
	"net/http"
)

// ErrorWithStatus is an error that already knows the HTTP status it should
// be serialized with. Validators and services return it to short-circuit
// the middleware chain with something other than the default 422/500.
type ErrorWithStatus struct {
	Status  int
	Message string
}

func (e *ErrorWithStatus) Error() string {
	return e.Message
}

func New(status int, message string) *ErrorWithStatus {
	return &ErrorWithStatus{Status: status, Message: message}
}

func BadRequest(message string) *ErrorWithStatus {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *ErrorWithStatus {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *ErrorWithStatus {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *ErrorWithStatus {
	return New(http.StatusNotFound, message)
}

// StatusOf returns the status carried by err, or 500 when err is not an
// ErrorWithStatus.
func StatusOf(err error) int {
	var se *ErrorWithStatus
	if errors.As(err, &se) {
		return se.Status
	}
	return http.StatusInternalServerError
}
