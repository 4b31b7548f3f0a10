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

// Package qname translates repository qualified names into index-safe field
// names and back.
//
// Field names are URL-encoded with an extra substitution pass for characters
// that are legal in URL encoding but reserved in the search engine's field
// syntax. ":" survives encoding, which keeps prefixed names like "cm:name"
// readable as "cm%3Aname".
package qname

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var fieldSubstitutions = strings.NewReplacer(
	".", "%2E",
	"-", "%2D",
	"*", "%2A",
	"+", "%20",
)

var nodeRefPattern = regexp.MustCompile(`.+://.+/(.+)`)

// Encode turns a logical field name into its stored form.
func Encode(qualifiedName string) string {
	return fieldSubstitutions.Replace(url.QueryEscape(qualifiedName))
}

// Decode reverses Encode.
func Decode(fieldName string) (string, error) {
	decoded, err := url.QueryUnescape(fieldName)
	if err != nil {
		return "", fmt.Errorf("failed to decode field name %q: %w", fieldName, err)
	}
	return decoded, nil
}

// ExtractUUID returns the trailing segment of a node reference of the form
// <protocol>://<store>/<uuid>.
func ExtractUUID(nodeRef string) (string, error) {
	m := nodeRefPattern.FindStringSubmatch(nodeRef)
	if m == nil {
		return "", fmt.Errorf("invalid node reference: %q", nodeRef)
	}
	return m[1], nil
}

// SplitQName splits "{uri}localName" into the braced URI and the local name.
// The URI part keeps its enclosing braces.
func SplitQName(key string) (uri, localName string, ok bool) {
	idx := strings.LastIndex(key, "}")
	if !strings.HasPrefix(key, "{") || idx < 0 {
		return "", "", false
	}
	return key[:idx+1], key[idx+1:], true
}
