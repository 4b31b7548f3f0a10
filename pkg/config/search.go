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

import "fmt"

// IndexConfig names an index and whether the bridge bootstraps it.
type IndexConfig struct {
	Name   string `yaml:"name"`
	Create bool   `yaml:"create"`
}

// SearchConfig configures the search engine client and the two indexes the
// bridge owns: the data index and the single-document control index.
type SearchConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ClientKeystore holds the client certificate when the engine requires
	// mutual TLS.
	ClientKeystore StoreConfig `yaml:"client_keystore"`

	// Truststore holds the CAs trusted when talking to the engine.
	Truststore StoreConfig `yaml:"truststore"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	Index        IndexConfig `yaml:"index"`
	ControlIndex IndexConfig `yaml:"control_index"`
}

func (c *SearchConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9200
	}
	if c.Protocol == "" {
		c.Protocol = "http"
	}
	if c.Index.Name == "" {
		c.Index.Name = "alfresco"
	}
	if c.ControlIndex.Name == "" {
		c.ControlIndex.Name = "alfresco-control"
	}
}

func (c *SearchConfig) Validate() error {
	if c.Protocol != "http" && c.Protocol != "https" {
		return fmt.Errorf("protocol must be http or https, got %q", c.Protocol)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.Index.Name == c.ControlIndex.Name {
		return fmt.Errorf("index and control index must differ, both are %q", c.Index.Name)
	}
	return nil
}

// Address returns the engine endpoint URL.
func (c *SearchConfig) Address() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}
