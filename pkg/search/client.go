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

// Package search wraps the search engine's REST and bulk APIs.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/kadirpekel/searchbridge/pkg/config"
	"github.com/kadirpekel/searchbridge/pkg/httpclient"
)

// deleteAttempts and deleteBackoff govern the delete-by-query retry loop.
// Deletes race against in-flight metadata upserts on the same document.
const (
	deleteAttempts = 3
	deleteBackoff  = 5 * time.Second
)

// Client is a thin wrapper over the engine's REST API.
type Client struct {
	os    *opensearch.Client
	sleep func(time.Duration)
}

// NewClient builds a Client from configuration, including optional mutual
// TLS material.
func NewClient(cfg *config.SearchConfig) (*Client, error) {
	var transport http.RoundTripper
	if cfg.Protocol == "https" {
		tlsTransport, err := httpclient.ConfigureTLS(&httpclient.TLSConfig{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			KeystorePath:       cfg.ClientKeystore.Path,
			TruststorePath:     cfg.Truststore.Path,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS for search engine: %w", err)
		}
		transport = tlsTransport
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.Address()},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	return &Client{os: osClient, sleep: time.Sleep}, nil
}

// BulkItemError describes one failed operation of a bulk request.
type BulkItemError struct {
	ID     string
	Status int
	Reason string
}

func (e BulkItemError) Error() string {
	return fmt.Sprintf("bulk item %s failed with status %d: %s", e.ID, e.Status, e.Reason)
}

// Bulk executes an ordered set of operations in ndjson form. Any per-item
// failure fails the whole call; failed items are logged for diagnosis.
func (c *Client) Bulk(ctx context.Context, body io.Reader) error {
	req := opensearchapi.BulkRequest{Body: body}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk request failed: %s", res.String())
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to parse bulk response: %w", err)
	}
	if !parsed.Errors {
		return nil
	}

	var firstErr error
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error == nil {
				continue
			}
			itemErr := BulkItemError{ID: op.ID, Status: op.Status, Reason: op.Error.Reason}
			slog.Error("Bulk indexing failure", "id", op.ID, "status", op.Status, "reason", op.Error.Reason)
			if firstErr == nil {
				firstErr = itemErr
			}
		}
	}
	return firstErr
}

// UpdateWithScript applies a scripted partial update to one document.
func (c *Client) UpdateWithScript(ctx context.Context, index, docID string, body []byte) error {
	req := opensearchapi.UpdateRequest{
		Index:      index,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("update of document %s failed: %w", docID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("update of document %s failed: %s", docID, res.String())
	}
	return nil
}

// DeleteByQuery removes every document whose field matches value. The
// operation is retried to tolerate a concurrent upsert of the same document;
// it returns as soon as at least one document was deleted.
func (c *Client) DeleteByQuery(ctx context.Context, index, field, value string) error {
	query := fmt.Sprintf(`{"query": {"match": {%q: %q}}}`, field, value)

	for attempt := 0; attempt < deleteAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			c.sleep(deleteBackoff)
		}

		deleted, err := c.deleteByQueryOnce(ctx, index, query)
		if err != nil {
			slog.Warn("Delete-by-query attempt failed", "field", field, "value", value, "error", err)
			continue
		}
		if deleted > 0 {
			return nil
		}
		slog.Debug("Delete-by-query matched nothing, retrying", "field", field, "value", value)
	}

	slog.Warn("Delete-by-query gave up without deleting", "field", field, "value", value, "attempts", deleteAttempts)
	return nil
}

func (c *Client) deleteByQueryOnce(ctx context.Context, index, query string) (int, error) {
	req := opensearchapi.DeleteByQueryRequest{
		Index: []string{index},
		Body:  strings.NewReader(query),
	}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("delete-by-query failed: %s", res.String())
	}

	var parsed struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to parse delete-by-query response: %w", err)
	}
	return parsed.Total, nil
}

// GetSource fetches the _source of one document. A missing document yields
// (nil, nil).
func (c *Client) GetSource(ctx context.Context, index, docID string) (map[string]any, error) {
	req := opensearchapi.GetRequest{Index: index, DocumentID: docID}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return nil, fmt.Errorf("get of document %s failed: %w", docID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get of document %s failed: %s", docID, res.String())
	}

	var parsed struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", docID, err)
	}
	return parsed.Source, nil
}

// IndexDocument overwrites one document with the given id.
func (c *Client) IndexDocument(ctx context.Context, index, docID string, body []byte) error {
	req := opensearchapi.IndexRequest{
		Index:      index,
		DocumentID: docID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("index of document %s failed: %w", docID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index of document %s failed: %s", docID, res.String())
	}
	return nil
}

// IndexExists reports whether the given index exists.
func (c *Client) IndexExists(ctx context.Context, index string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{index}}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return false, fmt.Errorf("failed to check index %s: %w", index, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("failed to check index %s: %s", index, res.String())
	}
}

// CreateIndex creates an index with the given mapping.
func (c *Client) CreateIndex(ctx context.Context, index, mapping string) error {
	req := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(mapping),
	}
	res, err := req.Do(ctx, c.os)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to create index %s: %s", index, res.String())
	}
	return nil
}
