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

// Output field names written to the data index. Stored keys are the encoded
// form of these names.
const (
	FieldAlive              = "ALIVE"
	FieldReader             = "READER"
	FieldDenied             = "DENIED"
	FieldOwner              = "OWNER"
	FieldMetadataLastUpdate = "METADATA_INDEXING_LAST_UPDATE"
	FieldAspect             = "ASPECT"
	FieldProperties         = "PROPERTIES"
	FieldTag                = "TAG"
	FieldType               = "TYPE"
	FieldPrimaryParent      = "PRIMARYPARENT"
	FieldParent             = "PARENT"
)

// Input property names read from node metadata, in prefixed form.
const (
	PropName            = "cm:name"
	PropCreator         = "cm:creator"
	PropModifier        = "cm:modifier"
	PropCreated         = "cm:created"
	PropModified        = "cm:modified"
	PropOwner           = "cm:owner"
	PropContent         = "cm:content"
	PropContentTrStatus = "cm:content.tr_status"
	PropContentMime     = "cm:content.mimetype"
	PropContentSize     = "cm:content.size"
	PropContentEncoding = "cm:content.encoding"
	PropStoreIdentifier = "sys:store-identifier"
)

// ContentIDField is the contractual field holding the current content
// pointer of a document. Written unencoded.
const ContentIDField = "contentId"

// SpacesStore is the live content store. Nodes in other stores (archive,
// version) are never content-indexed.
const SpacesStore = "SpacesStore"

// TagsRoot is the first name-path segment of category paths that represent
// tags.
const TagsRoot = "Tags"
