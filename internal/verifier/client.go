package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// a single peer is polled, so the pool only needs a couple of idle connections
const (
	defaultMaxIdleConns        = 4
	defaultMaxIdleConnsPerHost = 2
	defaultIdleConnTimeout     = 90 * time.Second
)

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 1MB.
	Body []byte

	// Truncated is set when the body was longer than 1MB and Body holds only
	// the first 1MB.
	Truncated bool

	// StatusCode is the HTTP status code.
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error is set when no usable response was received. It is always a
	// *TransportError; HTTP status classification is left to the caller.
	Error error
}

// Client is an HTTP client wrapper for calling the verification endpoint.
//
// Timeouts are applied per request via context rather than on the
// http.Client, so a single client can serve verifiers with different
// timeouts. Response bodies are limited to 1MB.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new [Client] with keep-alive connection reuse enabled.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Get performs a GET request against url, bounded by timeout.
//
// Get always returns a Response; failures are captured in the Error field
// rather than returned separately.
func (c *Client) Get(ctx context.Context, url string, timeout time.Duration) Response {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   &TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)},
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   &TransportError{URL: url, Err: err},
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      &TransportError{URL: url, Err: fmt.Errorf("failed to read response body: %w", err)},
		}
	}

	truncated := len(body) > maxResponseBodySize
	if truncated {
		body = body[:maxResponseBodySize]
	}

	return Response{
		Body:       body,
		Truncated:  truncated,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes idle connections held by the client. Safe to call on a nil
// client and more than once; the client stays usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
