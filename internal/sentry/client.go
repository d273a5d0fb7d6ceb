package sentry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultFetchTimeout = 10 * time.Second

	// Cap on how much of an error response body is kept for logging.
	maxErrorBodySize = 4 << 10
)

// StatusError is a non-200 response from the Sentry API. The body is kept
// for diagnostic logging only and must never be shown to end users.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Client queries the Sentry issues API for a single project.
type Client struct {
	baseURL    string
	org        string
	project    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client for the given organization and project.
// A timeout of 0 means the default 10s per-fetch bound.
func NewClient(baseURL, org, project, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		org:     org,
		project: project,
		apiKey:  apiKey,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// Search looks up issues matching the given error ID and returns the raw
// JSON body of a 200 response. The payload may be an empty list, which is
// not an error. Non-200 responses come back as *StatusError. The client
// never retries; retry policy belongs to the lookup loop.
func (c *Client) Search(ctx context.Context, errorID string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/projects/%s/%s/issues/", c.baseURL, c.org, c.project)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	q := req.URL.Query()
	q.Set("query", "error_id:"+errorID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching issues: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	return json.RawMessage(payload), nil
}
