package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrMissingField, ErrInvalidFormat, ErrUnauthorized:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrMissingField ErrorCode = iota + 1000
	ErrInvalidFormat
	ErrNotFound
	ErrConflict
	ErrUnauthorized
	ErrInternal
)

// Error constructors

// NewMissingFields lists fields in the order given.
func NewMissingFields(fields ...string) *AppError {
	return &AppError{
		Code:    ErrMissingField,
		Message: "Missing fields: " + strings.Join(fields, ", "),
	}
}

func NewInvalidFormat(message string, err error) *AppError {
	return &AppError{
		Code:    ErrInvalidFormat,
		Message: message,
		Err:     err,
	}
}

func NewNotFound(message string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: message,
		Err:     err,
	}
}

func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

// NewUnauthorized reports bad credentials. It renders as 400, not 401.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "Server error",
		Err:     err,
	}
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// PublicMessage is the text returned to a client. The wrapped cause is
// never included.
func PublicMessage(err error) string {
	appErr, ok := As(err)
	if !ok {
		return "Server error"
	}
	return appErr.Message
}
