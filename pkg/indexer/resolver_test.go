package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/searchbridge/pkg/namespace"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

type fakeMetadataSource struct {
	nodes       map[int64]repo.Node
	acls        map[int64]repo.AclReaders
	metadataErr error
	readersErr  error

	aclCalls [][]int64
}

func (s *fakeMetadataSource) Metadata(ctx context.Context, nodeIDs ...int64) ([]repo.Node, error) {
	if s.metadataErr != nil {
		return nil, s.metadataErr
	}
	result := make([]repo.Node, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if node, ok := s.nodes[id]; ok {
			result = append(result, node)
		}
	}
	return result, nil
}

func (s *fakeMetadataSource) AclReadersByID(ctx context.Context, aclIDs []int64) (map[int64]repo.AclReaders, error) {
	s.aclCalls = append(s.aclCalls, aclIDs)
	if s.readersErr != nil {
		return nil, s.readersErr
	}
	return s.acls, nil
}

func contentMapping() *namespace.Mapping {
	return namespace.NewMapping(map[string]string{
		"{http://www.alfresco.org/model/content/1.0}": "cm",
	})
}

func TestResolve(t *testing.T) {
	source := &fakeMetadataSource{
		nodes: map[int64]repo.Node{
			1: {
				ID:      1,
				NodeRef: "workspace://SpacesStore/aaa",
				AclID:   10,
				Properties: map[string]any{
					"{http://www.alfresco.org/model/content/1.0}name": "doc.txt",
				},
			},
			2: {
				ID:      2,
				NodeRef: "workspace://SpacesStore/bbb",
				AclID:   10,
				Properties: map[string]any{
					"{http://www.alfresco.org/model/content/1.0}name": "other.txt",
				},
			},
		},
		acls: map[int64]repo.AclReaders{
			10: {AclID: 10, Readers: []string{"GROUP_EVERYONE"}, Denied: []string{"guest"}},
		},
	}

	resolver := NewResolver(source)
	nodes, err := resolver.Resolve(context.Background(), []repo.TransactionNode{
		{ID: 1}, {ID: 2},
	}, contentMapping())
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "doc.txt", nodes[0].Properties["cm:name"])
	assert.Equal(t, []string{"GROUP_EVERYONE"}, nodes[0].Readers)
	assert.Equal(t, []string{"guest"}, nodes[0].Denied)
	assert.Equal(t, []string{"GROUP_EVERYONE"}, nodes[1].Readers)

	// Shared ACL resolves once.
	require.Len(t, source.aclCalls, 1)
	assert.Equal(t, []int64{10}, source.aclCalls[0])
}

func TestResolveUnknownNamespaceFallback(t *testing.T) {
	source := &fakeMetadataSource{
		nodes: map[int64]repo.Node{
			1: {
				ID:      1,
				AclID:   10,
				Properties: map[string]any{
					"{http://custom}foo": "bar",
				},
			},
		},
		acls: map[int64]repo.AclReaders{10: {AclID: 10, Readers: []string{}}},
	}

	resolver := NewResolver(source)
	nodes, err := resolver.Resolve(context.Background(), []repo.TransactionNode{{ID: 1}}, contentMapping())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	assert.Equal(t, "bar", nodes[0].Properties["{http://custom}foo:foo"])
	assert.NotContains(t, nodes[0].Properties, "{http://custom}foo")
}

func TestResolveMissingACLYieldsEmptyReaders(t *testing.T) {
	source := &fakeMetadataSource{
		nodes: map[int64]repo.Node{
			1: {ID: 1, AclID: 99, Properties: map[string]any{}},
		},
		acls: map[int64]repo.AclReaders{},
	}

	resolver := NewResolver(source)
	nodes, err := resolver.Resolve(context.Background(), []repo.TransactionNode{{ID: 1}}, contentMapping())
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	require.NotNil(t, nodes[0].Readers)
	assert.Empty(t, nodes[0].Readers)
}

func TestResolveMetadataError(t *testing.T) {
	resolver := NewResolver(&fakeMetadataSource{metadataErr: errors.New("boom")})
	_, err := resolver.Resolve(context.Background(), []repo.TransactionNode{{ID: 1}}, contentMapping())
	assert.Error(t, err)
}

func TestResolveReadersError(t *testing.T) {
	source := &fakeMetadataSource{
		nodes:      map[int64]repo.Node{1: {ID: 1, AclID: 10}},
		readersErr: errors.New("boom"),
	}
	resolver := NewResolver(source)
	_, err := resolver.Resolve(context.Background(), []repo.TransactionNode{{ID: 1}}, contentMapping())
	assert.Error(t, err)
}

func TestResolveEmptyBatch(t *testing.T) {
	source := &fakeMetadataSource{}
	resolver := NewResolver(source)
	nodes, err := resolver.Resolve(context.Background(), nil, contentMapping())
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, source.aclCalls)
}
