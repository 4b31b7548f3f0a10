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

// Package config defines the configuration tree of the indexing bridge and
// its loading pipeline: read, expand environment variables, apply defaults,
// validate.
package config

import "fmt"

// Config is the root configuration of the bridge.
type Config struct {
	Repository RepositoryConfig    `yaml:"repository"`
	Search     SearchConfig        `yaml:"search"`
	Indexer    IndexerConfig       `yaml:"indexer"`
	Logger     LoggerConfig        `yaml:"logger"`
	Metrics    ObservabilityConfig `yaml:"observability"`
	Admin      AdminConfig         `yaml:"admin"`
}

// LoggerConfig controls the process-wide logger.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// ObservabilityConfig controls metrics and tracing.
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled"`

	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig controls the optional trace exporter.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

// AdminConfig controls the admin HTTP endpoint serving health, status and
// metrics.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ProcessConfigPipeline runs the standard pipeline on a loaded config.
func ProcessConfigPipeline(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ProcessConfigPipeline: config cannot be nil")
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ProcessConfigPipeline: validation failed: %w", err)
	}

	return cfg, nil
}

// SetDefaults applies default values across the tree.
func (c *Config) SetDefaults() {
	c.Repository.SetDefaults()
	c.Search.SetDefaults()
	c.Indexer.SetDefaults()

	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "text"
	}
	if c.Metrics.Tracing.SamplingRate == 0 {
		c.Metrics.Tracing.SamplingRate = 1.0
	}
	if c.Metrics.Tracing.ServiceName == "" {
		c.Metrics.Tracing.ServiceName = "searchbridge"
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = ":8081"
	}
}

// Validate checks the whole tree and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Repository.Validate(); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Indexer.Validate(); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	return nil
}
