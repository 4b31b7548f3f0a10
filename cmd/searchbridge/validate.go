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
	"fmt"

	"github.com/kadirpekel/searchbridge/pkg/config"
)

// ValidateCmd checks that the config file parses and passes validation,
// without touching the repository or the search engine.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := config.LoadFromFile(cli.Config)
	if err != nil {
		return err
	}

	fmt.Printf("Configuration is valid.\n")
	fmt.Printf("  repository: %s\n", cfg.Repository.URL)
	fmt.Printf("  search:     %s\n", cfg.Search.Address())
	fmt.Printf("  index:      %s\n", cfg.Search.Index.Name)
	fmt.Printf("  schedule:   %s\n", cfg.Indexer.Cron)
	return nil
}
