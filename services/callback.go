package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	callbackTimeout   = 5 * time.Second
	workerTokenHeader = "X-Worker-Token"
)

// TransportError means a status callback did not reach the API. StatusCode is
// zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("callback %s returned status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("callback %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CallbackClient posts job status updates to the orchestrating API.
type CallbackClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewCallbackClient(baseURL, token string) *CallbackClient {
	return &CallbackClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: callbackTimeout,
		},
	}
}

// PostStatus sends one POST with payload as JSON. There is no retry.
func (c *CallbackClient) PostStatus(ctx context.Context, callbackPath string, payload interface{}) error {
	url := c.baseURL + callbackPath

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(workerTokenHeader, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := strings.TrimSpace(string(bodyBytes))
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &TransportError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.New(detail),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
