// Package apperrors defines the error kinds surfaced by the account service.
// Every kind carries a stable machine-readable code and a human message.
package apperrors

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeConflict           Code = "CONFLICT"
	CodeAccessDenied       Code = "ACCESS_DENIED"
	CodeSessionInvalid     Code = "SESSION_INVALID"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// HTTPStatus maps a code to the status used by the HTTP binding.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeSessionInvalid, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a domain error.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error of the given kind that keeps cause in its chain.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

func Conflict(message string, fields ...FieldError) *Error {
	return &Error{Code: CodeConflict, Message: message, Fields: fields}
}

func AccessDenied(message string) *Error { return New(CodeAccessDenied, message) }

func SessionInvalid(message string) *Error { return New(CodeSessionInvalid, message) }

func InvalidCredentials(message string) *Error { return New(CodeInvalidCredentials, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Internal(message string, cause error) *Error { return Wrap(CodeInternal, message, cause) }

// GetCode extracts the code from any error; CodeUnknown for foreign errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
