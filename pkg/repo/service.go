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

package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

// Transactions fetches a bounded window of transactions starting at
// minTxnID.
func (c *Client) Transactions(ctx context.Context, minTxnID int64, maxResults int) (*TransactionContainer, error) {
	path := fmt.Sprintf("transactions?minTxnId=%d&maxResults=%d", minTxnID, maxResults)
	slog.Debug("Fetching transactions", "minTxnId", minTxnID, "maxResults", maxResults)

	payload, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var container TransactionContainer
	if err := json.Unmarshal(payload, &container); err != nil {
		return nil, fmt.Errorf("failed to parse transactions response: %w", err)
	}

	slog.Debug("Fetched transactions", "count", len(container.Transactions), "maxTxnId", container.MaxTxnID)
	return &container, nil
}

// Nodes fetches the per-node change headers of the transactions in
// [fromTxnID, toTxnID].
func (c *Client) Nodes(ctx context.Context, fromTxnID, toTxnID int64) ([]TransactionNode, error) {
	body, err := json.Marshal(map[string]int64{
		"fromTxnId": fromTxnID,
		"toTxnId":   toTxnID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal nodes request: %w", err)
	}

	payload, err := c.Post(ctx, "nodes", body)
	if err != nil {
		return nil, err
	}

	var response struct {
		Nodes []TransactionNode `json:"nodes"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to parse nodes response: %w", err)
	}

	slog.Debug("Fetched transaction nodes", "count", len(response.Nodes), "fromTxnId", fromTxnID, "toTxnId", toTxnID)
	return response.Nodes, nil
}

// Metadata fetches the full metadata records for the given node ids. ACL id,
// owner, paths and parent associations are always requested; child
// information never is.
func (c *Client) Metadata(ctx context.Context, nodeIDs ...int64) ([]Node, error) {
	body, err := json.Marshal(map[string]any{
		"nodeIds":                   nodeIDs,
		"includeAclId":              true,
		"includeOwner":              true,
		"includePaths":              true,
		"includeParentAssociations": true,
		"includeChildIds":           false,
		"includeChildAssociations":  false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata request: %w", err)
	}

	payload, err := c.Post(ctx, "metadata", body)
	if err != nil {
		return nil, err
	}

	var response struct {
		Nodes []Node `json:"nodes"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	return response.Nodes, nil
}

// AclReadersByID fetches the reader and denied lists for the given ACL ids
// and returns them keyed by ACL id.
func (c *Client) AclReadersByID(ctx context.Context, aclIDs []int64) (map[int64]AclReaders, error) {
	body, err := json.Marshal(map[string][]int64{"aclIds": aclIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal aclsReaders request: %w", err)
	}

	payload, err := c.Post(ctx, "aclsReaders", body)
	if err != nil {
		return nil, err
	}

	var response struct {
		AclsReaders []AclReaders `json:"aclsReaders"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to parse aclsReaders response: %w", err)
	}

	acls := make(map[int64]AclReaders, len(response.AclsReaders))
	for _, acl := range response.AclsReaders {
		acls[acl.AclID] = acl
	}
	return acls, nil
}

// ModelDiffs fetches the current list of deployed content models. The empty
// models array means: report everything.
func (c *Client) ModelDiffs(ctx context.Context) ([]ModelDiff, error) {
	payload, err := c.Post(ctx, "modelsdiff", []byte(`{"models": []}`))
	if err != nil {
		return nil, err
	}

	var response struct {
		Diffs []ModelDiff `json:"diffs"`
	}
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("failed to parse modelsdiff response: %w", err)
	}
	return response.Diffs, nil
}

// ModelXML fetches the XML definition of a model by its qualified name.
func (c *Client) ModelXML(ctx context.Context, modelQName string) ([]byte, error) {
	return c.Get(ctx, "model?modelQName="+url.QueryEscape(modelQName))
}

// TextContent fetches the extracted text of a node.
func (c *Client) TextContent(ctx context.Context, nodeID int64) (string, error) {
	payload, err := c.Get(ctx, fmt.Sprintf("textContent?nodeId=%d", nodeID))
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
