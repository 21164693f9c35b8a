// Package httpclient provides a pooled HTTP client for batch endpoint execution.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const defaultMaxBodySize = 1 << 20 // 1MB

// Config holds configuration for the HTTP client.
type Config struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	UserAgent           string
	Headers             map[string]string
	SkipTLSVerify       bool
	MaxBodySize         int64
}

// DefaultConfig returns defaults tuned for moderate fan-out against a handful
// of hosts.
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     0, // unlimited; the worker pool bounds concurrency
		UserAgent:           "runfleet/1.0",
		MaxBodySize:         defaultMaxBodySize,
	}
}

// Client is an HTTP client wrapper for executing endpoint descriptors.
//
// The client carries no global timeout; each request is bounded by its own
// context deadline so descriptors with different timeouts can share one
// connection pool.
type Client struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
}

// New creates a new client.
func New(config Config) *Client {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = defaultMaxBodySize
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       config.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.SkipTLSVerify,
		},
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
		},
		userAgent:   config.UserAgent,
		headers:     config.Headers,
		maxBodySize: config.MaxBodySize,
	}
}

// Request describes a single HTTP call.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Params      map[string]string
	Body        []byte
	ContentType string
	Timeout     time.Duration
}

// Response holds the result of a completed HTTP call.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Latency    time.Duration
}

// Do executes one request. The request timeout is applied via context
// deadline; a zero timeout means the caller's context alone bounds the call.
// A non-nil error always means the call did not complete (transport failure);
// non-2xx responses are returned without error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}

	if len(req.Params) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Client defaults first, request headers override.
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.ContentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Unwrap url.Error so callers classify the transport cause directly.
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Header:     resp.Header,
		Latency:    time.Since(start),
	}, nil
}
