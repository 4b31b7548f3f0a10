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

package config

import (
	"fmt"
	"strings"
)

// Secure communication modes against the repository admin API.
const (
	SecureCommsSecret = "secret"
	SecureCommsHTTPS  = "https"
)

// StoreConfig points at a PEM bundle on disk. Type and Password are accepted
// for compatibility with repository-side keystore settings; only PEM bundles
// are read.
type StoreConfig struct {
	Path     string `yaml:"path"`
	Type     string `yaml:"type"`
	Password string `yaml:"password"`
}

// RepositoryConfig configures the client of the repository admin REST API.
type RepositoryConfig struct {
	// URL is the base URL of the repository, e.g. http://localhost:8080.
	URL string `yaml:"url"`

	// SolrPath is the path of the SOLR-style admin API.
	SolrPath string `yaml:"solr_path"`

	// SecureComms selects the authentication mode: "secret" or "https".
	SecureComms string `yaml:"secure_comms"`

	// Secret is the shared secret carried in the X-Alfresco-Search-Secret
	// header when SecureComms is "secret".
	Secret string `yaml:"secret"`

	// Keystore holds the client certificate for mutual TLS.
	Keystore StoreConfig `yaml:"keystore"`

	// Truststore holds the CAs trusted when talking to the repository.
	Truststore StoreConfig `yaml:"truststore"`
}

func (c *RepositoryConfig) SetDefaults() {
	if c.SolrPath == "" {
		c.SolrPath = "/alfresco/service/api/solr/"
	}
	if c.SecureComms == "" {
		c.SecureComms = SecureCommsSecret
	}
}

func (c *RepositoryConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}

	switch c.SecureComms {
	case SecureCommsSecret:
		if c.Secret == "" {
			return fmt.Errorf("secret is required when secure_comms is %q", SecureCommsSecret)
		}
	case SecureCommsHTTPS:
		if c.Keystore.Path == "" {
			return fmt.Errorf("keystore.path is required when secure_comms is %q", SecureCommsHTTPS)
		}
		if c.Truststore.Path == "" {
			return fmt.Errorf("truststore.path is required when secure_comms is %q", SecureCommsHTTPS)
		}
	default:
		return fmt.Errorf("unsupported secure_comms mode: %q (use %q or %q)",
			c.SecureComms, SecureCommsSecret, SecureCommsHTTPS)
	}

	return nil
}
