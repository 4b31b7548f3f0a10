// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package httpclient provides a pooled HTTP client with bounded retries,
// TLS configuration, and a request-signing hook.
package httpclient

import (
	"math"
	"net/http"
	"time"
)

// Signer mutates an outgoing request just before it is sent. Typical use is
// attaching an authentication header.
type Signer func(*http.Request)

// RetryStrategy selects how a failed attempt is retried.
type RetryStrategy int

const (
	NoRetry RetryStrategy = iota
	ConservativeRetry
	BackoffRetry
)

// RetryStrategyFunc maps a response status code to a retry strategy.
type RetryStrategyFunc func(int) RetryStrategy

// Client wraps *http.Client with retry and signing behavior. Connections are
// pooled by the underlying transport.
type Client struct {
	client       *http.Client
	maxRetries   int
	baseDelay    time.Duration
	signer       Signer
	strategyFunc RetryStrategyFunc
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithMaxRetries(max int) Option {
	return func(c *Client) {
		c.maxRetries = max
	}
}

func WithBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = delay
	}
}

func WithSigner(signer Signer) Option {
	return func(c *Client) {
		c.signer = signer
	}
}

func WithRetryStrategy(strategyFunc RetryStrategyFunc) Option {
	return func(c *Client) {
		c.strategyFunc = strategyFunc
	}
}

// WithTransport replaces the transport of the underlying *http.Client.
func WithTransport(transport *http.Transport) Option {
	return func(c *Client) {
		c.client.Transport = transport
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		client:       &http.Client{Timeout: 60 * time.Second},
		maxRetries:   3,
		baseDelay:    time.Second,
		strategyFunc: DefaultRetryStrategy,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func DefaultRetryStrategy(statusCode int) RetryStrategy {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusServiceUnavailable:
		return BackoffRetry
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusGatewayTimeout:
		return ConservativeRetry
	default:
		return NoRetry
	}
}

// Do sends the request, retrying transient failures. Network errors and
// non-2xx responses after retries are returned as *TransportError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.signer != nil {
		c.signer(req)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, &TransportError{URL: req.URL.String(), Err: err}
			}
			req.Body = body
		}

		resp, strategy, err := c.attemptRequest(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if strategy == NoRetry || attempt >= c.maxRetries {
			return nil, lastErr
		}

		delay := c.calculateDelay(strategy, attempt)
		if delay <= 0 {
			return nil, lastErr
		}
		time.Sleep(delay)
	}

	return nil, lastErr
}

func (c *Client) attemptRequest(req *http.Request) (*http.Response, RetryStrategy, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		// Network and TLS failures retry conservatively.
		return nil, ConservativeRetry, &TransportError{URL: req.URL.String(), Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, NoRetry, nil
	}

	resp.Body.Close()
	strategy := c.strategyFunc(resp.StatusCode)
	return nil, strategy, &TransportError{URL: req.URL.String(), StatusCode: resp.StatusCode}
}

func (c *Client) calculateDelay(strategy RetryStrategy, attempt int) time.Duration {
	switch strategy {
	case BackoffRetry:
		return time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	case ConservativeRetry:
		if attempt >= 2 {
			return 0
		}
		return time.Duration(1+attempt) * c.baseDelay
	default:
		return 0
	}
}
