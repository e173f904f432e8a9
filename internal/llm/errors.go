package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// APICallError represents a classified failure from the model service.
// Status carries the HTTP status when one was observed; 0 means the call
// failed before a status was available (network error, bad response shape).
type APICallError struct {
	Message string
	Status  int
	Body    string
	Cause   error
}

func (e *APICallError) Error() string {
	switch {
	case e.Status != 0 && e.Cause != nil:
		return fmt.Sprintf("API call failed (status %d): %s: %v", e.Status, e.Message, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("API call failed (status %d): %s", e.Status, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	default:
		return fmt.Sprintf("API call failed: %s", e.Message)
	}
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// classify wraps a provider error, extracting the HTTP status when present.
func classify(message string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APICallError{
			Message: message,
			Status:  gerr.Code,
			Body:    gerr.Body,
			Cause:   err,
		}
	}
	return &APICallError{Message: message, Cause: err}
}

// StatusOf returns the HTTP status carried by err, or 0 if none.
func StatusOf(err error) int {
	var apiErr *APICallError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsAuth reports whether err is an authentication/authorization failure.
// Auth failures are never retried.
func IsAuth(err error) bool {
	status := StatusOf(err)
	return status == 401 || status == 403
}

// IsRateLimit reports whether err is a rate-limit rejection.
func IsRateLimit(err error) bool {
	return StatusOf(err) == 429
}

// IsRetryable reports whether a call that failed with err may be retried.
// One policy applies at every call site: 429 and 5xx retry, auth never
// does, and cancellation is not a failure at all. Errors with no status
// are treated as transient network failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsAuth(err) {
		return false
	}
	status := StatusOf(err)
	return status == 429 || status >= 500 || status == 0
}
