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
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kadirpekel/searchbridge/pkg/qname"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

// retryOnConflict tolerates concurrent updates of the same document id
// within a bulk window.
const retryOnConflict = 5

// Builder translates nodes into bulk upsert operations. Every operation
// carries a server-side script that makes metadata writes last-writer-wins
// on METADATA_INDEXING_LAST_UPDATE.
type Builder struct {
	index string
}

func NewBuilder(index string) *Builder {
	return &Builder{index: index}
}

// BuildBulk renders one scripted upsert per node in ndjson bulk form.
// commitTimeMs is the max commit time of the transaction window and becomes
// every document's METADATA_INDEXING_LAST_UPDATE.
func (b *Builder) BuildBulk(nodes []repo.Node, commitTimeMs int64) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	for i := range nodes {
		node := &nodes[i]

		uuid, err := qname.ExtractUUID(node.NodeRef)
		if err != nil {
			return nil, err
		}

		fields := ExtractFields(node, commitTimeMs)

		action := map[string]any{
			"update": map[string]any{
				"_index":            b.index,
				"_id":               uuid,
				"retry_on_conflict": retryOnConflict,
			},
		}
		// The upsert body duplicates the params so first-time inserts
		// materialize every field.
		operation := map[string]any{
			"script": map[string]any{
				"source": BuildScriptSource(fieldNames(fields)),
				"lang":   "painless",
				"params": fields,
			},
			"upsert": fields,
		}

		if err := encoder.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action for %s: %w", uuid, err)
		}
		if err := encoder.Encode(operation); err != nil {
			return nil, fmt.Errorf("failed to encode bulk operation for %s: %w", uuid, err)
		}
	}

	return &buf, nil
}

// BuildScriptSource renders the merge script: an out-of-order replay becomes
// a noop, otherwise every param is overwritten onto the document.
func BuildScriptSource(fieldNames []string) string {
	var sb strings.Builder
	sb.WriteString("if (ctx._source." + FieldMetadataLastUpdate +
		" > params." + FieldMetadataLastUpdate +
		") { ctx.op = 'noop'} else { ")
	for _, fieldName := range fieldNames {
		sb.WriteString("ctx._source['")
		sb.WriteString(fieldName)
		sb.WriteString("'] = params['")
		sb.WriteString(fieldName)
		sb.WriteString("']; ")
	}
	sb.WriteString("}")
	return sb.String()
}

// ExtractFields computes the document fields for one node. Keys are in
// encoded form.
func ExtractFields(node *repo.Node, commitTimeMs int64) map[string]any {
	fields := make(map[string]any)
	props := node.Properties

	addEncodedField(fields, FieldType, node.Type)

	if len(node.Ancestors) > 0 {
		fields[FieldPrimaryParent] = node.Ancestors[0]
		fields[FieldParent] = node.Ancestors
	}

	addEncodedField(fields, FieldReader, node.Readers)
	if len(node.Denied) > 0 {
		addEncodedField(fields, FieldDenied, node.Denied)
	}
	addEncodedField(fields, FieldMetadataLastUpdate, commitTimeMs)

	for _, prop := range []string{PropCreator, PropModifier, PropCreated, PropModified} {
		if value, ok := props[prop]; ok && value != nil {
			addEncodedField(fields, prop, value)
		}
	}

	addEncodedField(fields, PropName, props[PropName])

	if props != nil {
		remaining := make(map[string]any, len(props))
		for key, value := range props {
			if key == PropContentTrStatus || key == PropContent {
				continue
			}
			remaining[key] = value
		}
		for key, value := range remaining {
			addEncodedField(fields, key, value)
		}

		if owner := ownerOf(remaining, props); owner != nil {
			addEncodedField(fields, FieldOwner, owner)
		}

		names := make([]string, 0, len(remaining))
		for key := range remaining {
			names = append(names, key)
		}
		sort.Strings(names)
		addEncodedField(fields, FieldProperties, names)
	}

	addEncodedField(fields, FieldAspect, node.Aspects)
	addEncodedField(fields, FieldTag, tagsOf(node.NamePaths))

	if content, ok := props[PropContent].(map[string]any); ok {
		addEncodedField(fields, PropContentMime, content["mimetype"])
		addEncodedField(fields, PropContentSize, content["size"])
		addEncodedField(fields, PropContentEncoding, content["encoding"])
	}

	addEncodedField(fields, FieldAlive, true)

	return fields
}

// ownerOf resolves OWNER: the cm:owner property, falling back to
// cm:modifier.
func ownerOf(remaining, props map[string]any) any {
	if owner, ok := remaining[PropOwner]; ok && owner != nil {
		return owner
	}
	if modifier, ok := props[PropModifier]; ok && modifier != nil {
		return modifier
	}
	return nil
}

// tagsOf collects the tag names: the second segment of every name path
// rooted at "Tags".
func tagsOf(namePaths []repo.NamePath) []string {
	tags := make([]string, 0)
	for _, namePath := range namePaths {
		if len(namePath.NamePath) > 1 && namePath.NamePath[0] == TagsRoot {
			tags = append(tags, namePath.NamePath[1])
		}
	}
	return tags
}

func addEncodedField(fields map[string]any, key string, value any) {
	fields[qname.Encode(key)] = normalizeValue(value)
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalizeValue prepares a metadata value for indexing. Collections keep
// their shape with each element normalized, except locale-carrying lists
// which collapse to the first value. Entity-reference maps collapse to their
// id.
func normalizeValue(value any) any {
	if list, ok := value.([]any); ok {
		if text, isLocale := localeValue(list); isLocale {
			return text
		}
		normalized := make([]any, len(list))
		for i, element := range list {
			normalized[i] = normalizeScalar(element)
		}
		return normalized
	}
	return normalizeScalar(value)
}

func normalizeScalar(value any) any {
	if m, ok := value.(map[string]any); ok {
		if id, exists := m["id"]; exists {
			return id
		}
	}
	return value
}

// localeValue detects the multilingual text shape: a non-empty list whose
// first element is a map holding either only "locale" or exactly
// {"locale", "value"}. The value of the first element wins; a missing value
// reads as the empty string.
func localeValue(list []any) (string, bool) {
	if len(list) == 0 {
		return "", false
	}
	m, ok := list[0].(map[string]any)
	if !ok {
		return "", false
	}
	if _, hasLocale := m["locale"]; !hasLocale {
		return "", false
	}
	switch len(m) {
	case 1:
		return "", true
	case 2:
		value, hasValue := m["value"]
		if !hasValue {
			return "", false
		}
		if value == nil {
			return "", true
		}
		return fmt.Sprint(value), true
	default:
		return "", false
	}
}
