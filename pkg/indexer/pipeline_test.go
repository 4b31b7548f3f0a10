package indexer

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/searchbridge/pkg/namespace"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

type fakeRepository struct {
	container *repo.TransactionContainer
	txnErr    error
	nodes     []repo.TransactionNode
	nodesErr  error

	nodesFrom, nodesTo int64
}

func (r *fakeRepository) Transactions(ctx context.Context, minTxnID int64, maxResults int) (*repo.TransactionContainer, error) {
	if r.txnErr != nil {
		return nil, r.txnErr
	}
	return r.container, nil
}

func (r *fakeRepository) Nodes(ctx context.Context, fromTxnID, toTxnID int64) ([]repo.TransactionNode, error) {
	r.nodesFrom, r.nodesTo = fromTxnID, toTxnID
	return r.nodes, r.nodesErr
}

type fakeBulkIndexer struct {
	bulkBodies []string
	bulkErr    error
	deleted    []string
	deleteErr  error
}

func (b *fakeBulkIndexer) Bulk(ctx context.Context, body io.Reader) error {
	raw, _ := io.ReadAll(body)
	b.bulkBodies = append(b.bulkBodies, string(raw))
	return b.bulkErr
}

func (b *fakeBulkIndexer) DeleteByQuery(ctx context.Context, index, field, value string) error {
	b.deleted = append(b.deleted, field+"="+value)
	return b.deleteErr
}

type fakeCursorStore struct {
	cursor    int64
	setCalls  []int64
	cursorErr error
	setErr    error
}

func (c *fakeCursorStore) Cursor(ctx context.Context) (int64, error) {
	return c.cursor, c.cursorErr
}

func (c *fakeCursorStore) SetCursor(ctx context.Context, lastTransactionID int64) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.setCalls = append(c.setCalls, lastTransactionID)
	return nil
}

type fakeModelSyncer struct {
	syncErr error
	mapping *namespace.Mapping
}

func (m *fakeModelSyncer) Sync(ctx context.Context) error {
	return m.syncErr
}

func (m *fakeModelSyncer) Snapshot() *namespace.Mapping {
	if m.mapping == nil {
		return namespace.NewMapping(nil)
	}
	return m.mapping
}

type fakeContentSink struct {
	mu        sync.Mutex
	submitted [][]repo.Node
}

func (s *fakeContentSink) Submit(nodes []repo.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, nodes)
}

type pipelineFixture struct {
	repository *fakeRepository
	search     *fakeBulkIndexer
	cursor     *fakeCursorStore
	models     *fakeModelSyncer
	metadata   *fakeMetadataSource
	content    *fakeContentSink
	pipeline   *Pipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		repository: &fakeRepository{container: &repo.TransactionContainer{}},
		search:     &fakeBulkIndexer{},
		cursor:     &fakeCursorStore{},
		models:     &fakeModelSyncer{},
		metadata: &fakeMetadataSource{
			nodes: map[int64]repo.Node{},
			acls:  map[int64]repo.AclReaders{},
		},
		content: &fakeContentSink{},
	}
	f.pipeline = NewPipeline(
		f.repository,
		f.search,
		f.cursor,
		f.models,
		NewResolver(f.metadata),
		NewBuilder("alfresco"),
		f.content,
		"alfresco",
		100,
		&Metrics{},
	)
	return f
}

func TestPipelineIdleWhenNoNewTransactions(t *testing.T) {
	f := newPipelineFixture()
	f.cursor.cursor = 50
	f.repository.container = &repo.TransactionContainer{MaxTxnID: 50}

	require.NoError(t, f.pipeline.Run(context.Background()))

	assert.Empty(t, f.search.bulkBodies)
	assert.Empty(t, f.cursor.setCalls)

	status, ok := f.pipeline.LastStatus()
	require.True(t, ok)
	assert.Equal(t, int64(50), status.LastTransactionID)
	assert.Empty(t, status.Error)
}

func TestPipelineIndexesWindow(t *testing.T) {
	f := newPipelineFixture()
	f.cursor.cursor = 10
	f.repository.container = &repo.TransactionContainer{
		Transactions: []repo.Transaction{
			{ID: 11, CommitTimeMs: 1000},
			{ID: 13, CommitTimeMs: 3000},
			{ID: 12, CommitTimeMs: 2000},
		},
		MaxTxnCommitTime: 3000,
		MaxTxnID:         99,
	}
	f.repository.nodes = []repo.TransactionNode{
		{ID: 1, TxnID: 11, Status: repo.StatusUpdated, NodeRef: "workspace://SpacesStore/aaa", AclID: 7},
		{ID: 2, TxnID: 12, Status: repo.StatusDeleted, NodeRef: "workspace://SpacesStore/bbb"},
	}
	f.metadata.nodes[1] = repo.Node{
		ID:      1,
		NodeRef: "workspace://SpacesStore/aaa",
		AclID:   7,
		Properties: map[string]any{
			"cm:name": "doc.txt",
		},
	}
	f.metadata.acls[7] = repo.AclReaders{AclID: 7, Readers: []string{"GROUP_EVERYONE"}}

	require.NoError(t, f.pipeline.Run(context.Background()))

	// Nodes requested for the fetched window, not for the repository max.
	assert.Equal(t, int64(11), f.repository.nodesFrom)
	assert.Equal(t, int64(13), f.repository.nodesTo)

	require.Len(t, f.search.bulkBodies, 1)
	assert.Contains(t, f.search.bulkBodies[0], `"_id":"aaa"`)

	assert.Equal(t, []string{"id=bbb"}, f.search.deleted)

	// Cursor lands on the window max, never the repository max.
	assert.Equal(t, []int64{13}, f.cursor.setCalls)

	require.Len(t, f.content.submitted, 1)
	require.Len(t, f.content.submitted[0], 1)
	assert.Equal(t, int64(1), f.content.submitted[0][0].ID)

	status, ok := f.pipeline.LastStatus()
	require.True(t, ok)
	assert.Equal(t, 3, status.Transactions)
	assert.Equal(t, 1, status.Indexed)
	assert.Equal(t, 1, status.Deleted)
	assert.Equal(t, int64(13), status.LastTransactionID)
}

func TestPipelineAbortsOnUnknownStatus(t *testing.T) {
	f := newPipelineFixture()
	f.repository.container = &repo.TransactionContainer{
		Transactions: []repo.Transaction{{ID: 1}},
	}
	f.repository.nodes = []repo.TransactionNode{
		{ID: 1, Status: "x", NodeRef: "workspace://SpacesStore/aaa"},
	}

	err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)

	// Nothing written, cursor untouched.
	assert.Empty(t, f.search.bulkBodies)
	assert.Empty(t, f.search.deleted)
	assert.Empty(t, f.cursor.setCalls)
}

func TestPipelineKeepsCursorOnBulkFailure(t *testing.T) {
	f := newPipelineFixture()
	f.repository.container = &repo.TransactionContainer{
		Transactions: []repo.Transaction{{ID: 1}},
	}
	f.repository.nodes = []repo.TransactionNode{
		{ID: 1, Status: repo.StatusUpdated, NodeRef: "workspace://SpacesStore/aaa", AclID: 7},
	}
	f.metadata.nodes[1] = repo.Node{ID: 1, NodeRef: "workspace://SpacesStore/aaa", AclID: 7}
	f.metadata.acls[7] = repo.AclReaders{AclID: 7, Readers: []string{}}
	f.search.bulkErr = errors.New("bulk rejected")

	err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.cursor.setCalls)
	assert.Empty(t, f.content.submitted)
}

func TestPipelineFailsWhenModelSyncFails(t *testing.T) {
	f := newPipelineFixture()
	f.models.syncErr = errors.New("models unavailable")

	err := f.pipeline.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.search.bulkBodies)
}

func TestPipelineDeleteOnly(t *testing.T) {
	f := newPipelineFixture()
	f.repository.container = &repo.TransactionContainer{
		Transactions: []repo.Transaction{{ID: 20}},
	}
	f.repository.nodes = []repo.TransactionNode{
		{ID: 9, TxnID: 20, Status: repo.StatusDeleted, NodeRef: "workspace://SpacesStore/gone"},
	}

	require.NoError(t, f.pipeline.Run(context.Background()))

	assert.Empty(t, f.search.bulkBodies)
	assert.Equal(t, []string{"id=gone"}, f.search.deleted)
	assert.Equal(t, []int64{20}, f.cursor.setCalls)
}

func TestPipelineRejectsOverlappingRuns(t *testing.T) {
	f := newPipelineFixture()
	f.repository.container = &repo.TransactionContainer{}

	release := make(chan struct{})
	started := make(chan struct{})
	f.pipeline.running.Store(true)

	go func() {
		close(started)
		<-release
		f.pipeline.running.Store(false)
	}()

	<-started
	// While a cycle is marked running, a tick is dropped without error.
	require.NoError(t, f.pipeline.Run(context.Background()))
	_, ok := f.pipeline.LastStatus()
	assert.False(t, ok)

	close(release)
	// Eventually the guard clears and cycles run again.
	require.Eventually(t, func() bool {
		return f.pipeline.Run(context.Background()) == nil && func() bool {
			_, ok := f.pipeline.LastStatus()
			return ok
		}()
	}, time.Second, 10*time.Millisecond)
}
