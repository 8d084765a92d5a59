package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pipeline and API metrics. Batch binaries push these to the Pushgateway
// on exit; the server exposes them on /metrics.
var (
	CrawlRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_crawl_runs_total",
		Help: "Crawl runs by chain and terminal status",
	}, []string{"chain", "status"})

	CrawlDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_crawl_duration_seconds",
		Help:    "Wall-clock duration of one chain crawl",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"chain"})

	ImportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_runs_total",
		Help: "Import runs by chain and terminal status",
	}, []string{"chain", "status"})

	ImportedPricesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_imported_prices_total",
		Help: "Price rows inserted by chain",
	}, []string{"chain"})

	NormalizedProductsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_normalized_products_total",
		Help: "Golden products created by the normalizer",
	})

	NormalizationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_normalization_failures_total",
		Help: "Failed EAN normalizations by reason",
	}, []string{"reason"})

	ChatRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_chat_requests_total",
		Help: "Chat orchestrator requests",
	})

	ChatToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_chat_tool_calls_total",
		Help: "Tool invocations by tool name",
	}, []string{"tool"})
)

// PushMetrics pushes the default registry to the Pushgateway under the
// given job name. No-op when url is empty.
func PushMetrics(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
