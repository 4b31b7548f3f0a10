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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kadirpekel/searchbridge/pkg/config"
	"github.com/kadirpekel/searchbridge/pkg/indexer"
	"github.com/kadirpekel/searchbridge/pkg/logger"
	"github.com/kadirpekel/searchbridge/pkg/namespace"
	"github.com/kadirpekel/searchbridge/pkg/repo"
	"github.com/kadirpekel/searchbridge/pkg/search"
	"github.com/kadirpekel/searchbridge/pkg/tracing"
)

// application holds the fully wired components shared by the run and serve
// commands.
type application struct {
	cfg      *config.Config
	pipeline *indexer.Pipeline
	content  *indexer.ContentIndexer

	shutdownTracing func(context.Context) error
}

// loadConfig loads the config file and applies CLI logging overrides, then
// installs the logger.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.LoadFromFile(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Logger.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logger.Format = cli.LogFormat
	}
	logger.Init(logger.Options{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	})
	return cfg, nil
}

// newApplication wires clients, indexes and the pipeline. An unreachable
// search engine or an unreadable cursor fails startup rather than the first
// cycle.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	repoClient, err := repo.NewClient(&cfg.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository client: %w", err)
	}

	searchClient, err := search.NewClient(&cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	manager := search.NewIndexManager(searchClient, &cfg.Search)
	if err := manager.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare indexes: %w", err)
	}
	if _, err := manager.Cursor(ctx); err != nil {
		return nil, fmt.Errorf("failed to read indexing cursor: %w", err)
	}

	metrics, err := indexer.InitMetrics(cfg.Metrics.MetricsEnabled)
	if err != nil {
		return nil, err
	}
	shutdownTracing, err := tracing.Init(ctx, cfg.Metrics.Tracing)
	if err != nil {
		return nil, err
	}

	content := indexer.NewContentIndexer(
		repoClient,
		searchClient,
		manager.DataIndex(),
		cfg.Indexer.Content.Threads,
		metrics,
	)

	pipeline := indexer.NewPipeline(
		repoClient,
		searchClient,
		manager,
		namespace.NewMapper(repoClient),
		indexer.NewResolver(repoClient),
		indexer.NewBuilder(manager.DataIndex()),
		content,
		manager.DataIndex(),
		cfg.Indexer.Transaction.MaxResults,
		metrics,
	)

	return &application{
		cfg:             cfg,
		pipeline:        pipeline,
		content:         content,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Close drains pending content work and flushes tracing.
func (a *application) Close() {
	a.content.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = a.shutdownTracing(ctx)
}
