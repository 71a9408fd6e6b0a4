package struai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Watch subscribes to the server's event stream for this job and invokes
// onEvent for every status update until the job reaches a terminal state.
// It returns nil when the job completes, a JobFailedError when it fails,
// and the callback's error if onEvent aborts the stream. Cancelling ctx
// closes the connection and returns ctx.Err().
//
// Watch is push-based; prefer it over Wait when the server supports event
// streaming and updates should arrive without polling latency.
func (j *Job) Watch(ctx context.Context, onEvent func(JobStatus) error) error {
	wsEndpoint := j.client.baseURL
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)
	wsEndpoint += fmt.Sprintf("/projects/%s/jobs/%s/events", j.projectID, j.ID)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+j.client.apiKey)
	header.Set("User-Agent", j.client.userAgent)

	conn, _, err := dialer.DialContext(ctx, wsEndpoint, header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read job event: %w", err)
		}

		var status JobStatus
		if err := json.Unmarshal(payload, &status); err != nil {
			return fmt.Errorf("decode job event: %w", err)
		}
		if status.JobID == "" {
			status.JobID = j.ID
		}

		if err := onEvent(status); err != nil {
			return err
		}

		if status.IsFailed() {
			reason := "Unknown error"
			if status.Error != nil && *status.Error != "" {
				reason = *status.Error
			}
			return &JobFailedError{JobID: j.ID, Reason: reason}
		}
		if status.IsComplete() {
			return nil
		}
	}
}
