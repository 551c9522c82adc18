package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation Code = "validation_error"
	CodeAuth       Code = "auth_error"
	CodeForbidden  Code = "forbidden"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeToken      Code = "token_error"
	CodeRateLimit  Code = "rate_limited"
	CodeDependency Code = "dependency_error"
	CodeDelivery   Code = "delivery_error"
	CodeInternal   Code = "internal_error"
)

// AppError carries the taxonomy code and the HTTP status every handler
// failure is translated to. Err holds the wrapped cause, never shown to
// clients in production.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func New(code Code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func Auth(message string) *AppError {
	return New(CodeAuth, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// Conflict is a duplicate-unique-field failure. The original API surfaced
// these as 400, not 409, and clients depend on that.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusBadRequest)
}

func Token(message string) *AppError {
	return New(CodeToken, message, http.StatusBadRequest)
}

func RateLimited(message string) *AppError {
	return New(CodeRateLimit, message, http.StatusTooManyRequests)
}

func Dependency(message string, err error) *AppError {
	return New(CodeDependency, message, http.StatusBadGateway).WithCause(err)
}

func Delivery(message string, err error) *AppError {
	return New(CodeDelivery, message, http.StatusInternalServerError).WithCause(err)
}

func Internal(err error) *AppError {
	return New(CodeInternal, "Internal server error.", http.StatusInternalServerError).WithCause(err)
}

// As pulls an *AppError out of a wrapped chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
