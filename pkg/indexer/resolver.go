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

package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/searchbridge/pkg/namespace"
	"github.com/kadirpekel/searchbridge/pkg/qname"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

// metadataSource is the slice of the repository API the resolver needs.
type metadataSource interface {
	Metadata(ctx context.Context, nodeIDs ...int64) ([]repo.Node, error)
	AclReadersByID(ctx context.Context, aclIDs []int64) (map[int64]repo.AclReaders, error)
}

// Resolver turns updated transaction nodes into fully populated nodes:
// metadata with prefixed property keys plus the readers of each node's ACL.
type Resolver struct {
	source metadataSource
}

func NewResolver(source metadataSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve fetches metadata for every node and attaches readers. Property
// keys arrive in {uri}localName form and are rewritten to prefix:localName
// using the given namespace mapping.
func (r *Resolver) Resolve(ctx context.Context, txnNodes []repo.TransactionNode, mapping *namespace.Mapping) ([]repo.Node, error) {
	nodes := make([]repo.Node, 0, len(txnNodes))
	for _, txnNode := range txnNodes {
		fetched, err := r.source.Metadata(ctx, txnNode.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch metadata for node %d: %w", txnNode.ID, err)
		}
		for _, node := range fetched {
			node.Properties = rewriteKeys(node.Properties, mapping)
			nodes = append(nodes, node)
		}
	}

	if err := r.attachReaders(ctx, nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// attachReaders resolves the distinct ACL ids of the batch in one call and
// fans the reader and denied lists back out. A node whose ACL the repository
// does not report gets an empty reader list, never nil.
func (r *Resolver) attachReaders(ctx context.Context, nodes []repo.Node) error {
	seen := make(map[int64]bool)
	aclIDs := make([]int64, 0)
	for i := range nodes {
		if !seen[nodes[i].AclID] {
			seen[nodes[i].AclID] = true
			aclIDs = append(aclIDs, nodes[i].AclID)
		}
	}
	if len(aclIDs) == 0 {
		return nil
	}

	aclsByID, err := r.source.AclReadersByID(ctx, aclIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch ACL readers: %w", err)
	}

	for i := range nodes {
		acl, ok := aclsByID[nodes[i].AclID]
		if !ok || acl.Readers == nil {
			slog.Warn("No readers reported for ACL, indexing empty reader list",
				"aclId", nodes[i].AclID,
				"nodeRef", nodes[i].NodeRef)
			acl.Readers = []string{}
		}
		nodes[i].Readers = acl.Readers
		nodes[i].Denied = acl.Denied
	}
	return nil
}

// rewriteKeys maps every {uri}localName property key to its prefixed form.
// A URI absent from the model mapping falls back to the raw key with the
// local name appended, keeping the property addressable rather than dropping
// it.
func rewriteKeys(properties map[string]any, mapping *namespace.Mapping) map[string]any {
	if properties == nil {
		return nil
	}
	rewritten := make(map[string]any, len(properties))
	for key, value := range properties {
		if _, _, ok := qname.SplitQName(key); !ok {
			rewritten[key] = value
			continue
		}
		prefixed, ok := mapping.RewriteKey(key)
		if !ok {
			slog.Warn("No namespace prefix registered for property URI",
				"property", key,
				"indexedAs", prefixed)
		}
		rewritten[prefixed] = value
	}
	return rewritten
}
