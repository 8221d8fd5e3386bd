package models

import (
	"errors"
	"fmt"
)

// FailureKind classifies why an identification run failed
type FailureKind string

const (
	CaptureFailure    FailureKind = "capture_failure"
	ValidationFailure FailureKind = "validation_failure"
	InvalidCredential FailureKind = "invalid_credential"
	RateLimited       FailureKind = "rate_limited"
	ServiceError      FailureKind = "service_error"
)

// Failure is the error type returned by the pipeline components. Reason is
// safe to show to a user.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Reason     string      `json:"reason"`
	StatusCode int         `json:"status_code,omitempty"`
	Body       string      `json:"body,omitempty"`
	Cause      error       `json:"-"`
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", f.Kind, f.Reason, f.Cause)
	}
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", f.Kind, f.Reason, f.StatusCode)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// AsFailure extracts a *Failure from err, converting anything else into a
// ServiceError so raw transport errors never reach callers.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewServiceError(0, "", err)
}

// Factory functions for each failure kind

func NewCaptureFailure(cause error) *Failure {
	return &Failure{
		Kind:   CaptureFailure,
		Reason: "Could not capture the selected region",
		Cause:  cause,
	}
}

func NewValidationFailure() *Failure {
	return &Failure{
		Kind:   ValidationFailure,
		Reason: "Could not read capture",
	}
}

func NewInvalidCredential(statusCode int) *Failure {
	return &Failure{
		Kind:       InvalidCredential,
		Reason:     "The text recognition service rejected the configured API key",
		StatusCode: statusCode,
	}
}

func NewRateLimited(statusCode int) *Failure {
	return &Failure{
		Kind:       RateLimited,
		Reason:     "Too many requests, wait a moment and try again",
		StatusCode: statusCode,
	}
}

func NewServiceError(statusCode int, body string, cause error) *Failure {
	reason := "The lookup service is unavailable"
	if statusCode != 0 {
		reason = fmt.Sprintf("The lookup service returned status %d", statusCode)
	}
	return &Failure{
		Kind:       ServiceError,
		Reason:     reason,
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}
