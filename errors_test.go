package struai

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorString(t *testing.T) {
	err := &APIError{StatusCode: 404, Code: "not_found", Message: "no such sheet"}
	assert.Equal(t, "no such sheet code=not_found status=404", err.Error())

	bare := &APIError{Message: "boom"}
	assert.Equal(t, "boom", bare.Error())
}

func TestRateLimitUnwrapsToAPIError(t *testing.T) {
	var err error = &RateLimitError{
		APIError:   APIError{StatusCode: http.StatusTooManyRequests, Message: "slow down"},
		RetryAfter: 7 * time.Second,
	}
	// Wrapped once more, the way call sites return it.
	err = fmt.Errorf("list sheets: %w", err)

	assert.True(t, IsRateLimit(err))

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)

	var rl *RateLimitError
	assert.True(t, errors.As(err, &rl))
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
}

func TestStatusHelpers(t *testing.T) {
	wrap := func(status int) error {
		return fmt.Errorf("op: %w", &APIError{StatusCode: status, Message: "x"})
	}

	assert.True(t, IsAuth(wrap(401)))
	assert.True(t, IsPermissionDenied(wrap(403)))
	assert.True(t, IsNotFound(wrap(404)))
	assert.True(t, IsValidation(wrap(422)))
	assert.True(t, IsServerError(wrap(500)))
	assert.True(t, IsServerError(wrap(503)))

	assert.False(t, IsAuth(wrap(404)))
	assert.False(t, IsServerError(wrap(422)))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestValidationCoversLocalErrors(t *testing.T) {
	err := fmt.Errorf("crop: %w", validationErrorf("output path is required"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestJobErrorStrings(t *testing.T) {
	failed := &JobFailedError{JobID: "j-1", Reason: "rasterizer crashed"}
	assert.Equal(t, "job j-1 failed: rasterizer crashed", failed.Error())

	timeout := &JobTimeoutError{JobID: "j-2", Timeout: 10 * time.Minute}
	assert.Equal(t, "job j-2 did not complete within 10m0s", timeout.Error())
}

func TestTransportErrorString(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := &TransportError{Op: "GET /v1/projects", Err: base}
	assert.Equal(t, "GET /v1/projects: connection failed: dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, base)

	slow := &TransportError{Op: "GET /v1/projects", Timeout: true, Err: base}
	assert.Contains(t, slow.Error(), "request timed out")
}

func TestRequireField(t *testing.T) {
	assert.NoError(t, requireField("sheet_id", "A-101"))
	assert.Error(t, requireField("sheet_id", ""))
	assert.Error(t, requireField("sheet_id", "   "))
}
