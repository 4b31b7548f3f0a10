package indexer

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/searchbridge/pkg/repo"
)

func testNode() *repo.Node {
	return &repo.Node{
		ID:      42,
		NodeRef: "workspace://SpacesStore/8c3f2a10-0f8a-4b2f-9e47-77d1f9c6a111",
		Type:    "cm:content",
		AclID:   7,
		Aspects: []string{"cm:titled", "cm:auditable"},
		Readers: []string{"GROUP_EVERYONE"},
		Ancestors: []string{
			"workspace://SpacesStore/parent-uuid",
			"workspace://SpacesStore/grandparent-uuid",
		},
		NamePaths: []repo.NamePath{
			{NamePath: []string{"Company Home", "Sites", "docs"}},
			{NamePath: []string{"Tags", "finance"}},
		},
		Properties: map[string]any{
			"cm:name":     "report.pdf",
			"cm:creator":  "admin",
			"cm:modifier": "jdoe",
			"cm:created":  "2024-01-01T10:00:00.000Z",
			"cm:modified": "2024-02-01T10:00:00.000Z",
			"cm:title":    []any{map[string]any{"locale": "en", "value": "Quarterly Report"}},
			"cm:content": map[string]any{
				"contentId": float64(900),
				"mimetype":  "application/pdf",
				"size":      float64(12345),
				"encoding":  "UTF-8",
			},
			"cm:content.tr_status": "DONE",
		},
	}
}

func TestExtractFields(t *testing.T) {
	fields := ExtractFields(testNode(), 1700000000000)

	assert.Equal(t, "cm:content", fields["TYPE"])
	assert.Equal(t, "workspace://SpacesStore/parent-uuid", fields["PRIMARYPARENT"])
	assert.Equal(t, []string{
		"workspace://SpacesStore/parent-uuid",
		"workspace://SpacesStore/grandparent-uuid",
	}, fields["PARENT"])
	assert.Equal(t, []string{"GROUP_EVERYONE"}, fields["READER"])
	assert.NotContains(t, fields, "DENIED")
	assert.Equal(t, int64(1700000000000), fields["METADATA_INDEXING_LAST_UPDATE"])
	assert.Equal(t, true, fields["ALIVE"])

	// Encoded property keys.
	assert.Equal(t, "report.pdf", fields["cm%3Aname"])
	assert.Equal(t, "admin", fields["cm%3Acreator"])
	assert.Equal(t, "jdoe", fields["cm%3Amodifier"])

	// Locale list collapses to its value.
	assert.Equal(t, "Quarterly Report", fields["cm%3Atitle"])

	// Owner falls back to the modifier when cm:owner is absent.
	assert.Equal(t, "jdoe", fields["OWNER"])

	// Content carrier properties come from the content map.
	assert.Equal(t, "application/pdf", fields["cm%3Acontent%2Emimetype"])
	assert.Equal(t, float64(12345), fields["cm%3Acontent%2Esize"])
	assert.Equal(t, "UTF-8", fields["cm%3Acontent%2Eencoding"])

	// The content object itself and the transformation status never index.
	assert.NotContains(t, fields, "cm%3Acontent")
	assert.NotContains(t, fields, "cm%3Acontent%2Etr_status")

	assert.Equal(t, []string{"cm:titled", "cm:auditable"}, fields["ASPECT"])
	assert.Equal(t, []string{"finance"}, fields["TAG"])
}

func TestExtractFieldsOwnerProperty(t *testing.T) {
	node := testNode()
	node.Properties["cm:owner"] = "owner-user"

	fields := ExtractFields(node, 1)
	assert.Equal(t, "owner-user", fields["OWNER"])
}

func TestExtractFieldsDeniedList(t *testing.T) {
	node := testNode()
	node.Denied = []string{"guest"}

	fields := ExtractFields(node, 1)
	assert.Equal(t, []string{"guest"}, fields["DENIED"])
}

func TestExtractFieldsPropertiesList(t *testing.T) {
	fields := ExtractFields(testNode(), 1)

	names, ok := fields["PROPERTIES"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{
		"cm:created",
		"cm:creator",
		"cm:modified",
		"cm:modifier",
		"cm:name",
		"cm:title",
	}, names)
}

func TestExtractFieldsNoAncestors(t *testing.T) {
	node := testNode()
	node.Ancestors = nil

	fields := ExtractFields(node, 1)
	assert.NotContains(t, fields, "PRIMARYPARENT")
	assert.NotContains(t, fields, "PARENT")
}

func TestBuildScriptSource(t *testing.T) {
	source := BuildScriptSource([]string{"ALIVE", "TYPE"})
	assert.Equal(t,
		"if (ctx._source.METADATA_INDEXING_LAST_UPDATE > params.METADATA_INDEXING_LAST_UPDATE)"+
			" { ctx.op = 'noop'} else { "+
			"ctx._source['ALIVE'] = params['ALIVE']; "+
			"ctx._source['TYPE'] = params['TYPE']; }",
		source)
}

func TestBuildBulk(t *testing.T) {
	builder := NewBuilder("alfresco")
	buf, err := builder.BuildBulk([]repo.Node{*testNode()}, 1700000000000)
	require.NoError(t, err)

	scanner := bufio.NewScanner(buf)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	require.True(t, scanner.Scan())
	var action map[string]map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &action))
	update := action["update"]
	assert.Equal(t, "alfresco", update["_index"])
	assert.Equal(t, "8c3f2a10-0f8a-4b2f-9e47-77d1f9c6a111", update["_id"])
	assert.Equal(t, float64(5), update["retry_on_conflict"])

	require.True(t, scanner.Scan())
	var operation struct {
		Script struct {
			Source string         `json:"source"`
			Lang   string         `json:"lang"`
			Params map[string]any `json:"params"`
		} `json:"script"`
		Upsert map[string]any `json:"upsert"`
	}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &operation))

	assert.Equal(t, "painless", operation.Script.Lang)
	assert.Contains(t, operation.Script.Source, "ctx.op = 'noop'")
	assert.Contains(t, operation.Script.Source, "ctx._source['ALIVE'] = params['ALIVE'];")
	assert.Equal(t, operation.Script.Params, operation.Upsert)

	// Every scripted field has a matching param.
	for name := range operation.Script.Params {
		assert.Contains(t, operation.Script.Source, "params['"+name+"']")
	}

	require.False(t, scanner.Scan())
}

func TestBuildBulkInvalidNodeRef(t *testing.T) {
	node := testNode()
	node.NodeRef = "garbage"

	builder := NewBuilder("alfresco")
	_, err := builder.BuildBulk([]repo.Node{*node}, 1)
	assert.Error(t, err)
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  any
	}{
		{
			name:  "locale with value",
			input: []any{map[string]any{"locale": "en", "value": "hello"}},
			want:  "hello",
		},
		{
			name:  "locale without value",
			input: []any{map[string]any{"locale": "en"}},
			want:  "",
		},
		{
			name:  "locale with nil value",
			input: []any{map[string]any{"locale": "en", "value": nil}},
			want:  "",
		},
		{
			name:  "entity reference map",
			input: map[string]any{"id": float64(12), "displayName": "x"},
			want:  float64(12),
		},
		{
			name:  "collection of entity references",
			input: []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}},
			want:  []any{"a", "b"},
		},
		{
			name:  "plain collection",
			input: []any{"x", "y"},
			want:  []any{"x", "y"},
		},
		{
			name:  "scalar",
			input: "plain",
			want:  "plain",
		},
		{
			name:  "nil",
			input: nil,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.input))
		})
	}
}

func TestTagsOf(t *testing.T) {
	tags := tagsOf([]repo.NamePath{
		{NamePath: []string{"Tags", "alpha"}},
		{NamePath: []string{"Company Home", "docs"}},
		{NamePath: []string{"Tags", "beta", "nested"}},
		{NamePath: []string{"Tags"}},
	})
	assert.Equal(t, []string{"alpha", "beta"}, tags)
}

func TestBuildScriptSourceMatchesEncodedNames(t *testing.T) {
	source := BuildScriptSource([]string{"cm%3Aname"})
	assert.True(t, strings.Contains(source, "ctx._source['cm%3Aname'] = params['cm%3Aname'];"))
}
