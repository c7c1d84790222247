// Package downstream talks to the hosted text-generation endpoint.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Egham-7/oracle-proxy/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/bytebufferpool"
)

// MaxResponseBytes caps how much of a downstream body is read.
const MaxResponseBytes = 1 << 20

// ErrResponseTooLarge is returned when a body exceeds MaxResponseBytes.
var ErrResponseTooLarge = errors.New("response exceeds 1 MiB")

var bodyPool bytebufferpool.Pool

// Response is the raw downstream answer for one attempt.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client posts generation requests to a fixed endpoint with connection pooling
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
	Headers    map[string]string
}

// ClientConfig holds configuration for the downstream client
type ClientConfig struct {
	Endpoint            string
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
}

// DefaultClientConfig returns pooled-transport defaults for the downstream client.
// There is no client-wide timeout; every call is bounded by its context.
func DefaultClientConfig(endpoint string) *ClientConfig {
	return &ClientConfig{
		Endpoint:            endpoint,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
}

// NewClient creates a downstream client with default transport settings
func NewClient(endpoint string) *Client {
	return NewClientWithConfig(DefaultClientConfig(endpoint))
}

// NewClientWithConfig creates a downstream client with custom configuration
func NewClientWithConfig(config *ClientConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		Endpoint:   config.Endpoint,
		HTTPClient: &http.Client{Transport: transport},
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"User-Agent":   "oracle-proxy/1.0",
		},
	}
}

// Generate posts one generation request authenticated with token. A non-nil
// error means no usable HTTP response was obtained (dial, write, read or
// context failure, or a body over MaxResponseBytes); any status code, 2xx or
// not, comes back as a Response.
func (c *Client) Generate(ctx context.Context, token string, req models.GenerationRequest) (*Response, error) {
	buf := bodyPool.Get()
	defer bodyPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(req); err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	// buf must outlive the body write; the payload is sent before any response is read.
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(buf.B))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	for k, v := range c.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error executing request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fiberlog.Debugf("Error closing downstream response body: %v", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if len(body) > MaxResponseBytes {
		return nil, fmt.Errorf("%w (status %d)", ErrResponseTooLarge, resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Close releases idle pooled connections
func (c *Client) Close() {
	if transport, ok := c.HTTPClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
