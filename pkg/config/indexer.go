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

// IndexerConfig controls the transactional indexing pipeline.
type IndexerConfig struct {
	// Cron is the cycle schedule in cron syntax, e.g. "0/12 * * * * ?"
	// or the @every form.
	Cron string `yaml:"cron"`

	Transaction TransactionConfig `yaml:"transaction"`
	Content     ContentConfig     `yaml:"content"`
}

// TransactionConfig bounds the transaction window fetched per cycle.
type TransactionConfig struct {
	MaxResults int `yaml:"max_results"`
}

// ContentConfig sizes the asynchronous content worker pool.
type ContentConfig struct {
	Threads int `yaml:"threads"`
}

func (c *IndexerConfig) SetDefaults() {
	if c.Cron == "" {
		c.Cron = "@every 12s"
	}
	if c.Transaction.MaxResults == 0 {
		c.Transaction.MaxResults = 100
	}
	if c.Content.Threads == 0 {
		c.Content.Threads = 4
	}
}

func (c *IndexerConfig) Validate() error {
	if c.Transaction.MaxResults < 1 {
		return fmt.Errorf("transaction.max_results must be positive, got %d", c.Transaction.MaxResults)
	}
	if c.Content.Threads < 1 {
		return fmt.Errorf("content.threads must be positive, got %d", c.Content.Threads)
	}
	return nil
}
