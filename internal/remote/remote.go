// Package remote implements the HTTP clients for the feed and reputation services.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrNetwork is returned when a remote service is unreachable or answers with a non-2xx status.
	ErrNetwork = errors.New("remote request failed")
	// ErrMalformedPayload is returned when a remote response cannot be decoded.
	ErrMalformedPayload = errors.New("malformed remote payload")
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 64 << 20

// get performs a GET request and returns the body of a 2xx response.
func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrNetwork, resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
