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

// Package repo is the client of the repository's SOLR-style administrative
// REST API.
package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/searchbridge/pkg/config"
	"github.com/kadirpekel/searchbridge/pkg/httpclient"
)

// SecretHeader carries the shared secret in secret mode.
const SecretHeader = "X-Alfresco-Search-Secret"

// Client talks to the repository admin API. It supports two authentication
// modes: a shared-secret header on every request, or mutual TLS.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

// NewClient builds a Client from configuration. The secure_comms mode decides
// whether requests are signed with the secret header or presented with a
// client certificate.
func NewClient(cfg *config.RepositoryConfig) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.URL, "/") + "/" + strings.Trim(cfg.SolrPath, "/")

	opts := []httpclient.Option{
		httpclient.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}

	switch cfg.SecureComms {
	case config.SecureCommsSecret:
		secret := cfg.Secret
		opts = append(opts, httpclient.WithSigner(func(req *http.Request) {
			req.Header.Set(SecretHeader, secret)
		}))

	case config.SecureCommsHTTPS:
		transport, err := httpclient.ConfigureTLS(&httpclient.TLSConfig{
			KeystorePath:   cfg.Keystore.Path,
			TruststorePath: cfg.Truststore.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure mutual TLS: %w", err)
		}
		opts = append(opts, httpclient.WithTransport(transport))

	default:
		return nil, fmt.Errorf("unsupported secure_comms mode: %q", cfg.SecureComms)
	}

	return &Client{
		baseURL: baseURL,
		http:    httpclient.New(opts...),
	}, nil
}

// Get performs a GET of the given endpoint path relative to the admin API
// root and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	return c.send(req)
}

// Post performs a POST of a JSON payload to the given endpoint path and
// returns the raw response body.
func (c *Client) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httpclient.TransportError{URL: req.URL.String(), Err: err}
	}
	return payload, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}
