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
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/kadirpekel/searchbridge/pkg/admin"
	"github.com/kadirpekel/searchbridge/pkg/indexer"
)

// ServeCmd runs cycles on the configured cron schedule until SIGINT or
// SIGTERM.
type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler, err := indexer.NewScheduler(cfg.Indexer.Cron, app.pipeline)
	if err != nil {
		return err
	}

	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer = admin.NewServer(cfg.Admin.Addr, app.pipeline)
		go func() {
			if err := adminServer.Start(); err != nil {
				slog.Error("Admin server failed", "error", err)
			}
		}()
	}

	scheduler.Start()
	slog.Info("Indexer started", "schedule", cfg.Indexer.Cron)

	<-ctx.Done()
	slog.Info("Shutting down...")

	scheduler.Stop()
	if adminServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = adminServer.Shutdown(shutdownCtx)
	}
	return nil
}
