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

// Package namespace maintains the mapping from model namespace URIs to their
// short prefixes, rebuilt from the repository's deployed content models.
package namespace

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/kadirpekel/searchbridge/pkg/qname"
	"github.com/kadirpekel/searchbridge/pkg/repo"
)

// Source provides the model inventory and model definitions.
type Source interface {
	ModelDiffs(ctx context.Context) ([]repo.ModelDiff, error)
	ModelXML(ctx context.Context, modelQName string) ([]byte, error)
}

// Mapping is an immutable snapshot of {uri} → prefix. Keys keep their
// enclosing braces, e.g. "{http://www.alfresco.org/model/content/1.0}" → "cm".
type Mapping struct {
	prefixes map[string]string
}

// NewMapping builds a snapshot from an existing uri → prefix table.
func NewMapping(prefixes map[string]string) *Mapping {
	copied := make(map[string]string, len(prefixes))
	for uri, prefix := range prefixes {
		copied[uri] = prefix
	}
	return &Mapping{prefixes: copied}
}

// Prefix looks up the short prefix for a braced namespace URI.
func (m *Mapping) Prefix(uri string) (string, bool) {
	prefix, ok := m.prefixes[uri]
	return prefix, ok
}

// Len reports the number of known namespaces.
func (m *Mapping) Len() int {
	return len(m.prefixes)
}

// RewriteKey translates a {uri}localName property key into prefix:localName.
// When the URI has no known prefix the full key is kept as the prefix part,
// and ok is false so the caller can log the gap.
func (m *Mapping) RewriteKey(key string) (rewritten string, ok bool) {
	uri, localName, valid := qname.SplitQName(key)
	if !valid {
		return key, false
	}
	prefix, known := m.prefixes[uri]
	if !known {
		return key + ":" + localName, false
	}
	return prefix + ":" + localName, true
}

// Mapper rebuilds the namespace mapping and publishes it as an immutable
// snapshot. Readers never observe a partial rebuild.
type Mapper struct {
	source  Source
	current atomic.Pointer[Mapping]
}

func NewMapper(source Source) *Mapper {
	m := &Mapper{source: source}
	m.current.Store(NewMapping(nil))
	return m
}

// Snapshot returns the last published mapping. Never nil.
func (m *Mapper) Snapshot() *Mapping {
	return m.current.Load()
}

// Sync rebuilds the mapping from the repository's model list. A model that
// fails to fetch or parse is logged and skipped; the synchronization as a
// whole only fails when the model list itself cannot be retrieved.
func (m *Mapper) Sync(ctx context.Context) error {
	diffs, err := m.source.ModelDiffs(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve model list: %w", err)
	}

	prefixes := make(map[string]string, len(diffs))
	for _, diff := range diffs {
		uri, _, ok := qname.SplitQName(diff.Name)
		if !ok {
			slog.Warn("Skipping model with malformed qualified name", "model", diff.Name)
			continue
		}

		xmlContent, err := m.source.ModelXML(ctx, diff.Name)
		if err != nil {
			slog.Warn("Skipping model: definition could not be fetched", "model", diff.Name, "error", err)
			continue
		}

		prefix, err := parseModelPrefix(xmlContent)
		if err != nil {
			slog.Warn("Skipping model: definition could not be parsed", "model", diff.Name, "error", err)
			continue
		}

		prefixes[uri] = prefix
		slog.Debug("Mapped model namespace", "uri", uri, "prefix", prefix)
	}

	m.current.Store(NewMapping(prefixes))
	slog.Debug("Namespace mapping synchronized", "models", len(prefixes))
	return nil
}

// parseModelPrefix extracts the prefix from a model definition. The root
// <model> element (any namespace) carries a name attribute of the form
// prefix:localName.
func parseModelPrefix(xmlContent []byte) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(xmlContent)))
	for {
		token, err := decoder.Token()
		if err != nil {
			return "", fmt.Errorf("no model element found: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "model" {
			continue
		}

		for _, attr := range start.Attr {
			if attr.Name.Local != "name" {
				continue
			}
			prefix, _, found := strings.Cut(attr.Value, ":")
			if !found || prefix == "" {
				return "", fmt.Errorf("model name %q has no prefix", attr.Value)
			}
			return prefix, nil
		}
		return "", fmt.Errorf("model element has no name attribute")
	}
}
