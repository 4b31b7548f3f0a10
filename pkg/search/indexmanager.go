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

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/searchbridge/pkg/config"
)

// cursorDocID is the fixed id of the single cursor document in the control
// index.
const cursorDocID = "1"

const dataIndexMapping = `{
  "mappings": {
    "properties": {
      "id": {
        "type": "text"
      },
      "dbid": {
        "type": "long"
      },
      "contentId": {
        "type": "long"
      },
      "name": {
        "type": "text"
      },
      "text": {
        "type": "text"
      }
    }
  }
}`

const controlIndexMapping = `{
  "mappings": {
    "properties": {
      "lastTransactionId": {
        "type": "long"
      }
    }
  }
}`

// IndexManager bootstraps the data and control indexes and owns the durable
// transaction cursor.
type IndexManager struct {
	client *Client
	cfg    *config.SearchConfig
}

func NewIndexManager(client *Client, cfg *config.SearchConfig) *IndexManager {
	return &IndexManager{client: client, cfg: cfg}
}

// EnsureIndexes creates the data and control indexes when enabled by
// configuration and not yet present. A failure here is fatal at startup.
func (m *IndexManager) EnsureIndexes(ctx context.Context) error {
	if m.cfg.ControlIndex.Create {
		created, err := m.ensureIndex(ctx, m.cfg.ControlIndex.Name, controlIndexMapping)
		if err != nil {
			return err
		}
		if created {
			slog.Info("Control index created", "index", m.cfg.ControlIndex.Name)
		}
	}

	if m.cfg.Index.Create {
		created, err := m.ensureIndex(ctx, m.cfg.Index.Name, dataIndexMapping)
		if err != nil {
			return err
		}
		if created {
			slog.Info("Data index created", "index", m.cfg.Index.Name)
		}
	}

	return nil
}

func (m *IndexManager) ensureIndex(ctx context.Context, name, mapping string) (bool, error) {
	exists, err := m.client.IndexExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := m.client.CreateIndex(ctx, name, mapping); err != nil {
		return false, err
	}
	return true, nil
}

// Cursor reads the last successfully indexed transaction id. A missing
// cursor document means nothing has been indexed yet and reads as 0.
func (m *IndexManager) Cursor(ctx context.Context) (int64, error) {
	source, err := m.client.GetSource(ctx, m.cfg.ControlIndex.Name, cursorDocID)
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	if source == nil {
		return 0, nil
	}

	raw, ok := source["lastTransactionId"]
	if !ok {
		return 0, nil
	}
	value, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("cursor document holds a non-numeric lastTransactionId: %v", raw)
	}
	return int64(value), nil
}

// SetCursor overwrites the cursor document with the given transaction id.
func (m *IndexManager) SetCursor(ctx context.Context, lastTransactionID int64) error {
	body, err := json.Marshal(map[string]int64{"lastTransactionId": lastTransactionID})
	if err != nil {
		return fmt.Errorf("failed to marshal cursor document: %w", err)
	}
	if err := m.client.IndexDocument(ctx, m.cfg.ControlIndex.Name, cursorDocID, body); err != nil {
		return fmt.Errorf("failed to write cursor: %w", err)
	}
	return nil
}

// DataIndex returns the configured data index name.
func (m *IndexManager) DataIndex() string {
	return m.cfg.Index.Name
}
