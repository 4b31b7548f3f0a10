// Package searchbridge provides an incremental indexing bridge that replicates
// node metadata and text content from an Alfresco repository into OpenSearch.
//
// The bridge polls the repository's SOLR admin API for committed transactions,
// resolves the metadata and ACL readers of the affected nodes, and applies them
// to an OpenSearch index through scripted bulk updates. Text content is indexed
// asynchronously by a worker pool, and the last processed transaction is kept
// in a control index so indexing resumes where it left off.
//
// # Quick Start
//
// Install searchbridge:
//
//	go install github.com/kadirpekel/searchbridge/cmd/searchbridge@latest
//
// Create a configuration file:
//
//	repository:
//	  url: "http://localhost:8080"
//	  secure_comms: "secret"
//	  secret: "${REPO_SECRET}"
//
//	search:
//	  host: "localhost"
//	  port: 9200
//	  index:
//	    name: "alfresco"
//
//	indexer:
//	  cron: "0/10 * * * * *"
//	  transactions:
//	    max_results: 100
//
// Run a single indexing cycle:
//
//	searchbridge run --config config.yaml
//
// Or run continuously on the configured schedule:
//
//	searchbridge serve --config config.yaml
//
// # Packages
//
// The implementation is organized under pkg/:
//
//	import (
//	    "github.com/kadirpekel/searchbridge/pkg/config"
//	    "github.com/kadirpekel/searchbridge/pkg/indexer"
//	    "github.com/kadirpekel/searchbridge/pkg/repo"
//	    "github.com/kadirpekel/searchbridge/pkg/search"
//	)
//
// pkg/repo talks to the repository's SOLR admin API, pkg/search wraps the
// OpenSearch client, pkg/indexer contains the indexing pipeline, and
// pkg/namespace and pkg/qname handle qualified-name translation between the
// two systems.
package searchbridge
