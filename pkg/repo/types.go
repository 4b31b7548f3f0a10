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

// Node change statuses reported by the nodes endpoint.
const (
	StatusUpdated = "u"
	StatusDeleted = "d"
)

// Transaction is a commit unit in the repository. Transactions are totally
// ordered by ID.
type Transaction struct {
	ID           int64 `json:"id"`
	CommitTimeMs int64 `json:"commitTimeMs"`
	Updates      int   `json:"updates"`
	Deletes      int   `json:"deletes"`
}

// TransactionContainer is the response of the transactions endpoint.
// MaxTxnID and MaxTxnCommitTime describe the repository as a whole, not the
// returned window.
type TransactionContainer struct {
	Transactions     []Transaction `json:"transactions"`
	MaxTxnCommitTime int64         `json:"maxTxnCommitTime"`
	MaxTxnID         int64         `json:"maxTxnId"`
}

// TransactionNode is the per-node change header of a transaction.
type TransactionNode struct {
	ID      int64  `json:"id"`
	TxnID   int64  `json:"txnId"`
	Status  string `json:"status"`
	NodeRef string `json:"nodeRef"`
	AclID   int64  `json:"aclId"`
	Tenant  string `json:"tenant"`
}

// Path is a qualified path to a node.
type Path struct {
	Path  string `json:"path"`
	APath string `json:"apath"`
	QName string `json:"qname"`
}

// NamePath is an ordered sequence of human-readable path segments.
type NamePath struct {
	NamePath []string `json:"namePath"`
}

// Node is the full metadata record of a repository node. Property keys
// arrive in the {uri}localName form and are rewritten to prefix:localName by
// the metadata resolver.
type Node struct {
	ID              int64          `json:"id"`
	TenantDomain    string         `json:"tenantDomain"`
	NodeRef         string         `json:"nodeRef"`
	Type            string         `json:"type"`
	AclID           int64          `json:"aclId"`
	TxnID           int64          `json:"txnId"`
	Properties      map[string]any `json:"properties"`
	Aspects         []string       `json:"aspects"`
	Paths           []Path         `json:"paths"`
	NamePaths       []NamePath     `json:"namePaths"`
	Ancestors       []string       `json:"ancestors"`
	ParentAssocs    []string       `json:"parentAssocs"`
	ParentAssocsCrc int64          `json:"parentAssocsCrc"`
	Owner           string         `json:"owner"`

	// Readers and Denied are attached from the ACL readers endpoint, not
	// part of the metadata payload.
	Readers []string `json:"-"`
	Denied  []string `json:"-"`
}

// AclReaders lists the principals allowed and denied for one ACL.
type AclReaders struct {
	AclID          int64    `json:"aclId"`
	AclChangeSetID int64    `json:"aclChangeSetId"`
	TenantDomain   string   `json:"tenantDomain"`
	Readers        []string `json:"readers"`
	Denied         []string `json:"denied"`
}

// ModelDiff is one entry of the modelsdiff response.
type ModelDiff struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	OldChecksum int64  `json:"oldChecksum"`
	NewChecksum int64  `json:"newChecksum"`
}
