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

// Package indexer drives the replication cycle: read a window of committed
// repository transactions past the stored cursor, mirror their node updates
// and deletions into the search index, then advance the cursor. Content text
// follows asynchronously.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/kadirpekel/searchbridge/pkg/namespace"
	"github.com/kadirpekel/searchbridge/pkg/qname"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

// DeleteQueryField is the indexed field deletions match on. Documents store
// their node reference under "id"; the search engine's _id holds the bare
// UUID.
const DeleteQueryField = "id"

type repository interface {
	Transactions(ctx context.Context, minTxnID int64, maxResults int) (*repo.TransactionContainer, error)
	Nodes(ctx context.Context, fromTxnID, toTxnID int64) ([]repo.TransactionNode, error)
}

type bulkIndexer interface {
	Bulk(ctx context.Context, body io.Reader) error
	DeleteByQuery(ctx context.Context, index, field, value string) error
}

type cursorStore interface {
	Cursor(ctx context.Context) (int64, error)
	SetCursor(ctx context.Context, lastTransactionID int64) error
}

type modelSyncer interface {
	Sync(ctx context.Context) error
	Snapshot() *namespace.Mapping
}

type contentSink interface {
	Submit(nodes []repo.Node)
}

// Status is a snapshot of the most recent cycle, served by the admin
// endpoint.
type Status struct {
	CycleID           string        `json:"cycleId"`
	StartedAt         time.Time     `json:"startedAt"`
	Duration          time.Duration `json:"durationNs"`
	Transactions      int           `json:"transactions"`
	Indexed           int           `json:"indexed"`
	Deleted           int           `json:"deleted"`
	LastTransactionID int64         `json:"lastTransactionId"`
	Error             string        `json:"error,omitempty"`
}

// Pipeline runs indexing cycles. A cycle either completes fully, leaving the
// cursor on the last transaction it indexed, or fails before the cursor
// moves and the same window is retried next tick.
type Pipeline struct {
	repository repository
	search     bulkIndexer
	cursor     cursorStore
	models     modelSyncer
	resolver   *Resolver
	builder    *Builder
	content    contentSink
	index      string
	maxResults int
	metrics    *Metrics

	running    atomic.Bool
	lastStatus atomic.Pointer[Status]
}

func NewPipeline(
	repository repository,
	search bulkIndexer,
	cursor cursorStore,
	models modelSyncer,
	resolver *Resolver,
	builder *Builder,
	content contentSink,
	index string,
	maxResults int,
	metrics *Metrics,
) *Pipeline {
	return &Pipeline{
		repository: repository,
		search:     search,
		cursor:     cursor,
		models:     models,
		resolver:   resolver,
		builder:    builder,
		content:    content,
		index:      index,
		maxResults: maxResults,
		metrics:    metrics,
	}
}

// Run executes one indexing cycle. Concurrent invocations are rejected, not
// queued: a tick that fires while the previous cycle still runs is dropped
// with a warning.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		slog.Warn("Previous indexing cycle still running, skipping this tick")
		return nil
	}
	defer p.running.Store(false)

	status := Status{
		CycleID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger := slog.With("cycle", status.CycleID)

	ctx, span := otel.Tracer("searchbridge/indexer").Start(ctx, "indexing.cycle")
	defer span.End()

	err := p.runCycle(ctx, logger, &status)
	status.Duration = time.Since(status.StartedAt)
	if err != nil {
		status.Error = err.Error()
		span.RecordError(err)
		p.metrics.CycleFailed()
		logger.Error("Indexing cycle failed", "error", err)
	} else {
		p.metrics.RecordCycle(status.Duration, status.Transactions, status.Indexed, status.Deleted)
	}
	p.lastStatus.Store(&status)
	return err
}

// LastStatus reports the outcome of the most recent cycle, if any ran.
func (p *Pipeline) LastStatus() (Status, bool) {
	status := p.lastStatus.Load()
	if status == nil {
		return Status{}, false
	}
	return *status, true
}

func (p *Pipeline) runCycle(ctx context.Context, logger *slog.Logger, status *Status) error {
	if err := p.models.Sync(ctx); err != nil {
		return fmt.Errorf("failed to sync namespace models: %w", err)
	}

	cursor, err := p.cursor.Cursor(ctx)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}

	container, err := p.repository.Transactions(ctx, cursor+1, p.maxResults)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions after %d: %w", cursor, err)
	}

	if len(container.Transactions) == 0 {
		status.LastTransactionID = cursor
		logger.Info("Index is up to date",
			"lastIndexedTransaction", cursor,
			"repositoryMaxTransaction", container.MaxTxnID)
		return nil
	}

	minTxn, maxTxn, maxCommitTime := transactionWindow(container.Transactions)
	logger.Info("Processing transaction window",
		"fromTransaction", minTxn,
		"toTransaction", maxTxn,
		"transactions", len(container.Transactions))

	txnNodes, err := p.repository.Nodes(ctx, minTxn, maxTxn)
	if err != nil {
		return fmt.Errorf("failed to fetch nodes for transactions %d..%d: %w", minTxn, maxTxn, err)
	}

	updated, deleted, err := classify(txnNodes)
	if err != nil {
		return err
	}

	resolved, err := p.resolver.Resolve(ctx, updated, p.models.Snapshot())
	if err != nil {
		return err
	}

	if len(resolved) > 0 {
		body, err := p.builder.BuildBulk(resolved, maxCommitTime)
		if err != nil {
			return fmt.Errorf("failed to build bulk request: %w", err)
		}
		if err := p.search.Bulk(ctx, body); err != nil {
			return fmt.Errorf("failed to index metadata batch: %w", err)
		}
	}

	for _, node := range deleted {
		docID, err := qname.ExtractUUID(node.NodeRef)
		if err != nil {
			return fmt.Errorf("failed to resolve document id for deleted node %d: %w", node.ID, err)
		}
		if err := p.search.DeleteByQuery(ctx, p.index, DeleteQueryField, docID); err != nil {
			return fmt.Errorf("failed to delete document %s: %w", docID, err)
		}
	}

	if err := p.cursor.SetCursor(ctx, maxTxn); err != nil {
		return fmt.Errorf("failed to advance cursor to %d: %w", maxTxn, err)
	}

	p.content.Submit(resolved)

	status.Transactions = len(container.Transactions)
	status.Indexed = len(resolved)
	status.Deleted = len(deleted)
	status.LastTransactionID = maxTxn
	logger.Info("Indexing cycle complete",
		"transactions", status.Transactions,
		"indexed", status.Indexed,
		"deleted", status.Deleted,
		"lastTransactionId", maxTxn)
	return nil
}

// transactionWindow returns the lowest and highest transaction ids of the
// window plus its latest commit time. The cursor advances to the highest id
// actually fetched, never to the repository's global maximum.
func transactionWindow(transactions []repo.Transaction) (minTxn, maxTxn, maxCommitTime int64) {
	minTxn, maxTxn = transactions[0].ID, transactions[0].ID
	maxCommitTime = transactions[0].CommitTimeMs
	for _, txn := range transactions[1:] {
		if txn.ID < minTxn {
			minTxn = txn.ID
		}
		if txn.ID > maxTxn {
			maxTxn = txn.ID
		}
		if txn.CommitTimeMs > maxCommitTime {
			maxCommitTime = txn.CommitTimeMs
		}
	}
	return minTxn, maxTxn, maxCommitTime
}

// classify splits the window's nodes by status. Any status other than
// updated or deleted aborts the cycle before a single write happens.
func classify(txnNodes []repo.TransactionNode) (updated, deleted []repo.TransactionNode, err error) {
	for _, node := range txnNodes {
		switch node.Status {
		case repo.StatusUpdated:
			updated = append(updated, node)
		case repo.StatusDeleted:
			deleted = append(deleted, node)
		default:
			return nil, nil, fmt.Errorf("unknown status %q for node %d", node.Status, node.ID)
		}
	}
	return updated, deleted, nil
}
