package httputil

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/lukman83/pricehub/internal/apperr"
)

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// NewHTTPClient creates an HTTP client with sensible defaults.
// An optional RoundTripper (e.g. transport.APITransport) can be injected.
func NewHTTPClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	if transport == nil {
		transport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Do sends req once. Requests are never retried: a network failure or a
// non-2xx status comes back as an apperr Transport error for the caller to
// surface.
func Do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperr.TransportError(fmt.Sprintf("%s %s", req.Method, req.URL.Path), 0, err)
	}
	defer resp.Body.Close()

	body, err := ReadBody(resp)
	if err != nil {
		return nil, apperr.TransportError("read response", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, apperr.TransportError(errorMessage(body, resp.StatusCode), resp.StatusCode,
			fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode))
	}
	return body, nil
}

// DoJSON sends req and decodes a JSON response into out (which may be nil).
func DoJSON(client *http.Client, req *http.Request, out any) error {
	body, err := Do(client, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.TransportError("unexpected response", http.StatusOK, fmt.Errorf("decode %s: %w", req.URL.Path, err))
	}
	return nil
}

// NewJSONRequest builds a request with a JSON-encoded body (nil for none).
func NewJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range JSONHeaders() {
		req.Header[k] = v
	}
	return req, nil
}

// ReadBody reads and decompresses an HTTP response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		var err error
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer reader.Close()
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	default:
		reader = resp.Body
	}
	return io.ReadAll(reader)
}

// errorMessage pulls "error" or "message" out of a JSON error body.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if len(body) > 0 && len(body) <= maxErrorBody {
		return fmt.Sprintf("request failed (%d): %s", status, bytes.TrimSpace(body))
	}
	return fmt.Sprintf("request failed (%d)", status)
}
