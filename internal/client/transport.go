// Package client is the dashboard-side SDK: it talks to the backend API and
// owns the state store the views render from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio_go/internal/domain"
)

// Transport performs one API round-trip. out, when non-nil, receives the
// decoded response body.
type Transport interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// HTTPTransport is the production Transport over net/http.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport against the backend base URL.
func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// errorBody is the backend's {"detail": ...} error shape.
type errorBody struct {
	Detail string `json:"detail"`
}

// Do executes the request. Failures carry the human-readable reason extracted
// from the error body, falling back to the HTTP status.
func (t *HTTPTransport) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := t.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return domain.NewTransportError(method+" "+path, "backend unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Detail != "" {
			return domain.NewTransportError(method+" "+path, eb.Detail, nil)
		}
		return domain.NewTransportError(method+" "+path,
			fmt.Sprintf("request failed with %s", resp.Status), nil)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
