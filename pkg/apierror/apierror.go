package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes produced by the client when classifying a remote response.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeForbidden          = "FORBIDDEN"
	CodeValidationRejected = "VALIDATION_REJECTED"
	CodeUnavailable        = "UNAVAILABLE"
	CodeAuthRejected       = "AUTH_REJECTED"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Wrap builds an APIError that keeps cause reachable through errors.Is/As.
func Wrap(code string, message string, cause error) *APIError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &APIError{Code: code, Message: message, Details: details, Err: cause}
}

// Classify maps a non-2xx HTTP status to the client error taxonomy.
func Classify(status int, details string) *APIError {
	switch {
	case status == http.StatusUnauthorized:
		return New(CodeUnauthenticated, "authentication required", details, status)
	case status == http.StatusForbidden:
		return New(CodeForbidden, "insufficient permissions", details, status)
	case status == http.StatusTooManyRequests:
		return New(CodeUnavailable, "too many requests", details, status)
	case status >= 400 && status < 500:
		return New(CodeValidationRejected, "request rejected", details, status)
	default:
		return New(CodeUnavailable, "service unavailable", details, status)
	}
}

func CodeOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// UserMessage renders err the way a person at the terminal should read it.
// Validation rejections surface the server detail verbatim when one exists.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	switch apiErr.Code {
	case CodeUnauthenticated:
		return "Your session has ended. Please log in again."
	case CodeForbidden:
		return "You do not have permission to do that."
	case CodeAuthRejected:
		return "Login failed, check credentials"
	case CodeValidationRejected:
		if apiErr.Details != "" {
			return apiErr.Details
		}
		return "The request was rejected. Check your input and try again."
	case CodeUnavailable:
		return "The server could not be reached. Please try again."
	default:
		return apiErr.Error()
	}
}
