package bmtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// maxAttempts bounds the total tries per request (1 initial + 4 retries)
	maxAttempts = 5

	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// poolSize matches or exceeds the fetch worker pool width so concurrent
	// stages never queue on the connection pool
	poolSize = 100
)

// defaultHeaders are sent with every request; the WebAPI rejects calls
// without the portal Origin/Referer pair.
var defaultHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.5",
	"Content-Type":    "application/json",
	"lan":             "en",
	"deviceType":      "WEB",
	"Origin":          "https://bmtcwebportal.amnex.com",
	"Referer":         "https://bmtcwebportal.amnex.com/",
}

// retryStatus lists server statuses worth retrying; anything else non-200
// is treated as a permanent failure for that request.
var retryStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is a pooled, retrying JSON POST transport for the BMTC WebAPI,
// shared by all fetch stages.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given WebAPI base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        poolSize,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Post sends a JSON POST to the named endpoint and returns the raw response
// body. Transport errors and retryable server statuses are retried with
// exponential backoff; after exhausting attempts the last error is returned.
func (c *Client) Post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff
	policy.Multiplier = 2

	var out []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range defaultHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if retryStatus[resp.StatusCode] {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		out = data
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", endpoint, err)
	}
	return out, nil
}
