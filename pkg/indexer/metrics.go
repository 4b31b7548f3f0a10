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

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics exposes the indexing counters over the Prometheus exporter. The
// zero value records nothing, so callers never branch on whether metrics
// are enabled.
type Metrics struct {
	cycleDuration     metric.Float64Histogram
	cyclesTotal       metric.Int64Counter
	cycleErrorsTotal  metric.Int64Counter
	transactionsTotal metric.Int64Counter
	docsIndexedTotal  metric.Int64Counter
	docsDeletedTotal  metric.Int64Counter
	contentTotal      metric.Int64Counter
	contentErrors     metric.Int64Counter
}

// InitMetrics wires the OpenTelemetry meter to the Prometheus exporter. The
// exporter registers with the default Prometheus registry, which the admin
// server serves on /metrics.
func InitMetrics(enabled bool) (*Metrics, error) {
	if !enabled {
		return &Metrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("searchbridge")

	cycleDuration, err := meter.Float64Histogram(
		"searchbridge_cycle_duration_seconds",
		metric.WithDescription("Indexing cycle duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle duration histogram: %w", err)
	}

	cyclesTotal, err := meter.Int64Counter(
		"searchbridge_cycles_total",
		metric.WithDescription("Total indexing cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycles counter: %w", err)
	}

	cycleErrorsTotal, err := meter.Int64Counter(
		"searchbridge_cycle_errors_total",
		metric.WithDescription("Total failed indexing cycles"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle errors counter: %w", err)
	}

	transactionsTotal, err := meter.Int64Counter(
		"searchbridge_transactions_total",
		metric.WithDescription("Total repository transactions processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions counter: %w", err)
	}

	docsIndexedTotal, err := meter.Int64Counter(
		"searchbridge_documents_indexed_total",
		metric.WithDescription("Total documents created or updated"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents indexed counter: %w", err)
	}

	docsDeletedTotal, err := meter.Int64Counter(
		"searchbridge_documents_deleted_total",
		metric.WithDescription("Total documents deleted"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents deleted counter: %w", err)
	}

	contentTotal, err := meter.Int64Counter(
		"searchbridge_content_indexed_total",
		metric.WithDescription("Total content texts indexed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create content counter: %w", err)
	}

	contentErrors, err := meter.Int64Counter(
		"searchbridge_content_errors_total",
		metric.WithDescription("Total content indexing failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create content errors counter: %w", err)
	}

	return &Metrics{
		cycleDuration:     cycleDuration,
		cyclesTotal:       cyclesTotal,
		cycleErrorsTotal:  cycleErrorsTotal,
		transactionsTotal: transactionsTotal,
		docsIndexedTotal:  docsIndexedTotal,
		docsDeletedTotal:  docsDeletedTotal,
		contentTotal:      contentTotal,
		contentErrors:     contentErrors,
	}, nil
}

func (m *Metrics) RecordCycle(duration time.Duration, transactions, indexed, deleted int) {
	if m == nil || m.cycleDuration == nil {
		return
	}
	ctx := context.Background()
	m.cycleDuration.Record(ctx, duration.Seconds())
	m.cyclesTotal.Add(ctx, 1)
	m.transactionsTotal.Add(ctx, int64(transactions))
	m.docsIndexedTotal.Add(ctx, int64(indexed))
	m.docsDeletedTotal.Add(ctx, int64(deleted))
}

func (m *Metrics) CycleFailed() {
	if m == nil || m.cycleErrorsTotal == nil {
		return
	}
	m.cycleErrorsTotal.Add(context.Background(), 1)
}

func (m *Metrics) ContentIndexed() {
	if m == nil || m.contentTotal == nil {
		return
	}
	m.contentTotal.Add(context.Background(), 1)
}

func (m *Metrics) ContentFailed() {
	if m == nil || m.contentErrors == nil {
		return
	}
	m.contentErrors.Add(context.Background(), 1)
}
