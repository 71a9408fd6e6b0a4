package struai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// upload describes one multipart file part.
type upload struct {
	FieldName   string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// requestOptions collects the optional parts of an API request.
type requestOptions struct {
	query url.Values
	json  any
	form  map[string]string
	file  *upload
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, requestOptions{query: query}, out)
}

// post issues a POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, requestOptions{json: body}, out)
}

// postForm issues a POST request with form fields and an optional file part.
func (c *Client) postForm(ctx context.Context, path string, form map[string]string, file *upload, out any) error {
	return c.do(ctx, http.MethodPost, path, requestOptions{form: form, file: file}, out)
}

// del issues a DELETE request. out may be nil for empty responses.
func (c *Client) del(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, requestOptions{}, out)
}

// do runs one API request with retry. Transient failures (timeout,
// connection failure, 5xx, 429) are retried up to MaxRetries times with
// exponential backoff capped at 30s; a Retry-After hint on rate limits
// overrides the computed interval. Everything else surfaces immediately.
func (c *Client) do(ctx context.Context, method, path string, opts requestOptions, out any) error {
	// Multipart bodies are buffered once so every attempt can resend them.
	var bodyBytes []byte
	contentType := ""
	switch {
	case opts.file != nil || opts.form != nil:
		var err error
		bodyBytes, contentType, err = encodeMultipart(opts.form, opts.file)
		if err != nil {
			return err
		}
	case opts.json != nil:
		var err error
		bodyBytes, err = json.Marshal(opts.json)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		contentType = "application/json"
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.Multiplier = 2.0
	bo.RandomizationFactor = 0
	bo.Reset()

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := bo.NextBackOff()
			var rlErr *RateLimitError
			if errors.As(lastErr, &rlErr) && rlErr.RetryAfter > 0 {
				wait = min(rlErr.RetryAfter, bo.MaxInterval)
			}
			c.logger.Debug("retrying request",
				"method", method, "path", path, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				c.stats.RecordRequest(method, time.Since(start), attempt, true)
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err := c.doOnce(ctx, method, path, contentType, bodyBytes, opts.query, out)
		if err == nil {
			c.stats.RecordRequest(method, time.Since(start), attempt, false)
			return nil
		}
		if !isTransient(err) {
			c.stats.RecordRequest(method, time.Since(start), attempt, true)
			return err
		}
		lastErr = err
	}
	c.stats.RecordRequest(method, time.Since(start), c.maxRetries, true)
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path, contentType string, body []byte, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Client-Request-Id", uuid.New().String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return classifyTransport(method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(method+" "+path, err)
	}

	if resp.StatusCode >= 400 {
		return classifyStatus(resp, respBody)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func encodeMultipart(form map[string]string, file *upload) (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range form {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if file != nil {
		h := make(map[string][]string)
		disposition := fmt.Sprintf(`form-data; name=%q; filename=%q`, file.FieldName, file.FileName)
		h["Content-Disposition"] = []string{disposition}
		h["Content-Type"] = []string{file.ContentType}
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return nil, "", fmt.Errorf("copy file part: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// classifyStatus maps a non-2xx response to the error taxonomy.
func classifyStatus(resp *http.Response, body []byte) error {
	message := string(body)
	code := ""
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
		code = envelope.Error.Code
	}

	apiErr := APIError{
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
		RequestID:  resp.Header.Get("x-request-id"),
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 30 * time.Second
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter}
	}
	return &apiErr
}

func classifyTransport(op string, err error) error {
	var netErr net.Error
	timeout := errors.As(err, &netErr) && netErr.Timeout()
	return &TransportError{Op: op, Timeout: timeout, Err: err}
}

// isTransient reports whether an error belongs to a retryable class.
func isTransient(err error) bool {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return true
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
