package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func apiErr(status int) error {
	return classify("call failed", &googleapi.Error{Code: status, Message: "upstream"})
}

func TestClassify_ExtractsStatus(t *testing.T) {
	err := apiErr(429)

	var apiCallErr *APICallError
	assert.ErrorAs(t, err, &apiCallErr)
	assert.Equal(t, 429, apiCallErr.Status)
	assert.Equal(t, 429, StatusOf(err))
}

func TestClassify_NoStatusForPlainErrors(t *testing.T) {
	err := classify("network", errors.New("connection reset"))
	assert.Equal(t, 0, StatusOf(err))
}

func TestStatusOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", apiErr(503))
	assert.Equal(t, 503, StatusOf(err))
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(apiErr(401)))
	assert.True(t, IsAuth(apiErr(403)))
	assert.False(t, IsAuth(apiErr(500)))
	assert.False(t, IsAuth(nil))
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, IsRateLimit(apiErr(429)))
	assert.False(t, IsRateLimit(apiErr(400)))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))

	// Rate limits and server errors retry.
	assert.True(t, IsRetryable(apiErr(429)))
	assert.True(t, IsRetryable(apiErr(500)))
	assert.True(t, IsRetryable(apiErr(503)))

	// Statusless errors are treated as transient network failures.
	assert.True(t, IsRetryable(errors.New("connection refused")))

	// Auth and client errors do not retry.
	assert.False(t, IsRetryable(apiErr(401)))
	assert.False(t, IsRetryable(apiErr(403)))
	assert.False(t, IsRetryable(apiErr(400)))

	// Cancellation is not a failure.
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
}

func TestAPICallError_Message(t *testing.T) {
	err := &APICallError{Message: "bad response", Status: 502, Cause: errors.New("gateway")}
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "bad response")

	bare := &APICallError{Message: "no content"}
	assert.Equal(t, "API call failed: no content", bare.Error())
}

func TestAPICallError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := &APICallError{Message: "m", Cause: cause}
	assert.ErrorIs(t, err, cause)
}
