package struai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	struai "github.com/struai/struai-go"
)

// newTestClient spins up a fake API server and a client pointed at it.
// Retries default to 0 so error tests fail fast; override with options.
func newTestClient(t *testing.T, handler http.Handler, opts ...struai.Option) *struai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	all := append([]struai.Option{
		struai.WithBaseURL(srv.URL),
		struai.WithMaxRetries(0),
	}, opts...)
	c, err := struai.New("test-key", all...)
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("STRUAI_API_KEY", "")
	_, err := struai.New("")
	require.Error(t, err)
	assert.True(t, struai.IsValidation(err))

	t.Setenv("STRUAI_API_KEY", "env-key")
	c, err := struai.New("")
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(t, w, http.StatusOK, map[string]any{"projects": []any{}})
	}))

	_, err := c.Projects.List(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", got.Get("Authorization"))
	assert.True(t, strings.HasPrefix(got.Get("User-Agent"), "struai-go/"))
	assert.NotEmpty(t, got.Get("X-Client-Request-Id"))
}

func TestErrorClassification(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "req-42")
		writeJSON(t, w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"message": "project not found", "code": "not_found"},
		})
	}))

	_, err := c.Projects.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, struai.IsNotFound(err))

	var apiErr *struai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "project not found", apiErr.Message)
	assert.Equal(t, "req-42", apiErr.RequestID)
}

func TestAuthError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"message": "invalid api key"},
		})
	}))

	_, err := c.Projects.List(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, struai.IsAuth(err))
	assert.False(t, struai.IsNotFound(err))
}

func TestRateLimitRetryAfter(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		writeJSON(t, w, http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"message": "slow down", "code": "rate_limited"},
		})
	}))

	_, err := c.Projects.List(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, struai.IsRateLimit(err))

	var rlErr *struai.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)

	// RateLimitError unwraps to the API error taxonomy.
	var apiErr *struai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestRetriesTransientServerError(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(t, w, http.StatusInternalServerError, map[string]any{
				"error": map[string]any{"message": "transient"},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"projects": []any{}})
	}), struai.WithMaxRetries(1))

	_, err := c.Projects.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int64
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{"message": "bad input"},
		})
	}), struai.WithMaxRetries(2))

	_, err := c.Projects.List(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestConnectionErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c, err := struai.New("test-key", struai.WithBaseURL(srv.URL), struai.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = c.Projects.List(context.Background(), 0)
	require.Error(t, err)

	var tErr *struai.TransportError
	assert.True(t, errors.As(err, &tErr))
}

func TestStatsRecordRequests(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"projects": []any{}})
	}))

	_, err := c.Projects.List(context.Background(), 0)
	require.NoError(t, err)
	_, err = c.Projects.List(context.Background(), 0)
	require.NoError(t, err)

	snap := c.Stats()
	op, ok := snap.Operations[http.MethodGet]
	require.True(t, ok)
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, int64(0), op.Errors)
}
