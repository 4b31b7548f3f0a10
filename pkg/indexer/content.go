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
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kadirpekel/searchbridge/pkg/qname"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

// drainTimeout bounds how long Close waits for queued content jobs. Workers
// still running when it expires are abandoned.
const drainTimeout = 30 * time.Second

// contentSource fetches extracted text from the repository.
type contentSource interface {
	TextContent(ctx context.Context, nodeID int64) (string, error)
}

// contentStore is the slice of the search API the content phase needs.
type contentStore interface {
	GetSource(ctx context.Context, index, docID string) (map[string]any, error)
	UpdateWithScript(ctx context.Context, index, docID string, body []byte) error
}

// contentJob is one pending text extraction for an indexed document.
type contentJob struct {
	nodeID    int64
	docID     string
	contentID int64
}

// ContentIndexer runs the content phase: a fixed pool of workers that fetch
// extracted text and attach it to already-indexed documents. Metadata cycles
// hand work over through Submit and never wait for text extraction.
type ContentIndexer struct {
	source  contentSource
	store   contentStore
	index   string
	metrics *Metrics

	jobs  chan contentJob
	wg    sync.WaitGroup
	drain time.Duration
}

// NewContentIndexer starts threads workers consuming from a bounded queue.
// Submitting to a full queue blocks, which throttles metadata cycles instead
// of growing memory without bound.
func NewContentIndexer(source contentSource, store contentStore, index string, threads int, metrics *Metrics) *ContentIndexer {
	if threads < 1 {
		threads = 1
	}
	ci := &ContentIndexer{
		source:  source,
		store:   store,
		index:   index,
		metrics: metrics,
		jobs:    make(chan contentJob, threads*4),
		drain:   drainTimeout,
	}
	for i := 0; i < threads; i++ {
		ci.wg.Add(1)
		go ci.worker()
	}
	return ci
}

// Submit queues the content-eligible nodes of a metadata batch. A node is
// eligible when it lives in SpacesStore and its content property carries a
// content id.
func (ci *ContentIndexer) Submit(nodes []repo.Node) {
	for i := range nodes {
		job, ok := contentJobFor(&nodes[i])
		if !ok {
			continue
		}
		ci.jobs <- job
	}
}

// Close stops accepting work and waits for queued jobs to finish, up to the
// drain period. Whatever is still running after that is abandoned so shutdown
// cannot hang on a slow repository.
func (ci *ContentIndexer) Close() {
	close(ci.jobs)

	done := make(chan struct{})
	go func() {
		ci.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ci.drain):
		slog.Warn("Content drain period expired, abandoning remaining jobs",
			"drainPeriod", ci.drain)
	}
}

func (ci *ContentIndexer) worker() {
	defer ci.wg.Done()
	for job := range ci.jobs {
		if err := ci.process(context.Background(), job); err != nil {
			slog.Error("Content indexing failed for node",
				"nodeId", job.nodeID,
				"docId", job.docID,
				"error", err)
			ci.metrics.ContentFailed()
		}
	}
}

// process attaches the extracted text of one node to its document. The
// stored content id makes the operation idempotent: a document already at
// this content version is left alone.
func (ci *ContentIndexer) process(ctx context.Context, job contentJob) error {
	stored, err := ci.store.GetSource(ctx, ci.index, job.docID)
	if err != nil {
		return fmt.Errorf("failed to read indexed document: %w", err)
	}
	if stored != nil {
		if storedID, ok := numericValue(stored[ContentIDField]); ok && storedID == job.contentID {
			slog.Debug("Content already indexed, skipping",
				"docId", job.docID,
				"contentId", job.contentID)
			return nil
		}
	}

	text, err := ci.source.TextContent(ctx, job.nodeID)
	if err != nil {
		return fmt.Errorf("failed to fetch text content: %w", err)
	}
	if text == "" {
		slog.Debug("No text extracted for node, skipping content update",
			"nodeId", job.nodeID,
			"docId", job.docID)
		return nil
	}

	body, err := contentUpdateBody(text, job.contentID)
	if err != nil {
		return err
	}
	if err := ci.store.UpdateWithScript(ctx, ci.index, job.docID, body); err != nil {
		return fmt.Errorf("failed to update document content: %w", err)
	}

	ci.metrics.ContentIndexed()
	slog.Debug("Indexed content for node",
		"nodeId", job.nodeID,
		"docId", job.docID,
		"contentId", job.contentID)
	return nil
}

// contentUpdateBody builds the scripted update writing the text and the
// content id it belongs to. The text travels as a script param so escaping
// is the JSON encoder's problem, not string concatenation's.
func contentUpdateBody(text string, contentID int64) ([]byte, error) {
	update := map[string]any{
		"script": map[string]any{
			"source": "ctx._source['" + qname.Encode(PropContent) + "'] = params.text; " +
				"ctx._source['" + ContentIDField + "'] = params.contentId;",
			"lang": "painless",
			"params": map[string]any{
				"text":      text,
				"contentId": contentID,
			},
		},
	}
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content update: %w", err)
	}
	return body, nil
}

// contentJobFor decides eligibility and extracts the job parameters from a
// resolved node.
func contentJobFor(node *repo.Node) (contentJob, bool) {
	store, ok := node.Properties[PropStoreIdentifier].(string)
	if !ok || store != SpacesStore {
		return contentJob{}, false
	}
	content, ok := node.Properties[PropContent].(map[string]any)
	if !ok {
		return contentJob{}, false
	}
	contentID, ok := numericValue(content[ContentIDField])
	if !ok {
		return contentJob{}, false
	}
	uuid, err := qname.ExtractUUID(node.NodeRef)
	if err != nil {
		slog.Warn("Skipping content for node with unparseable node reference",
			"nodeRef", node.NodeRef,
			"error", err)
		return contentJob{}, false
	}
	return contentJob{nodeID: node.ID, docID: uuid, contentID: contentID}, true
}

// numericValue reads a JSON number in any of the shapes decoding can
// produce.
func numericValue(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
