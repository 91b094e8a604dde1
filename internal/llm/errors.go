package llm

import (
	"errors"
	"fmt"
)

// FailureCode categorizes generation failures.
type FailureCode string

const (
	// FailureAuth indicates the service rejected the credentials.
	FailureAuth FailureCode = "AUTH_FAILURE"

	// FailureRateLimited indicates the service refused the request on
	// quota grounds.
	FailureRateLimited FailureCode = "RATE_LIMITED"

	// FailureTimeout indicates the call exceeded its deadline or was
	// canceled in flight.
	FailureTimeout FailureCode = "TIMEOUT"

	// FailureEmptyResponse indicates the service answered with no usable
	// text.
	FailureEmptyResponse FailureCode = "EMPTY_RESPONSE"

	// FailureService indicates a server-side or transport fault outside
	// the other categories.
	FailureService FailureCode = "SERVICE_ERROR"
)

// GenerationError reports a classified generation failure. One attempt,
// one error; the package never retries.
type GenerationError struct {
	// Code identifies the failure category.
	Code FailureCode

	// Message is a human-readable description.
	Message string

	// Status is the HTTP status when one was received, else 0.
	Status int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s: %s (status=%d)", e.Code, e.Message, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsAuthFailure returns true if the error is a credential rejection.
// Uses errors.As to handle wrapped errors.
func IsAuthFailure(err error) bool {
	return failureCode(err) == FailureAuth
}

// IsRateLimited returns true if the error is a quota refusal.
func IsRateLimited(err error) bool {
	return failureCode(err) == FailureRateLimited
}

// IsTimeout returns true if the error is a deadline or cancellation.
func IsTimeout(err error) bool {
	return failureCode(err) == FailureTimeout
}

// IsEmptyResponse returns true if the service answered with no text.
func IsEmptyResponse(err error) bool {
	return failureCode(err) == FailureEmptyResponse
}

// IsServiceError returns true for server-side and transport faults.
func IsServiceError(err error) bool {
	return failureCode(err) == FailureService
}

func failureCode(err error) FailureCode {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

func newAuthError(status int, detail string) *GenerationError {
	msg := "service rejected credentials"
	if detail != "" {
		msg += ": " + detail
	}
	return &GenerationError{Code: FailureAuth, Message: msg, Status: status}
}

func newRateLimitError(status int, detail string) *GenerationError {
	msg := "service refused request on quota grounds"
	if detail != "" {
		msg += ": " + detail
	}
	return &GenerationError{Code: FailureRateLimited, Message: msg, Status: status}
}

func newTimeoutError(err error) *GenerationError {
	return &GenerationError{Code: FailureTimeout, Message: "generation call did not finish in time", Err: err}
}

func newEmptyResponseError(detail string, err error) *GenerationError {
	msg := "service returned no usable text"
	if detail != "" {
		msg += ": " + detail
	}
	return &GenerationError{Code: FailureEmptyResponse, Message: msg, Err: err}
}

func newServiceError(status int, detail string, err error) *GenerationError {
	msg := "generation request failed"
	if detail != "" {
		msg += ": " + detail
	}
	return &GenerationError{Code: FailureService, Message: msg, Status: status, Err: err}
}
