package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

// Crawler drives the daily per-chain scrape-and-archive batch.
type Crawler struct {
	store    storage.ArchiveStore
	reporter StatusReporter
	golden   GoldenMap
}

// NewCrawler creates a crawler persisting archives through store.
func NewCrawler(store storage.ArchiveStore, reporter StatusReporter, golden GoldenMap) *Crawler {
	return &Crawler{store: store, reporter: reporter, golden: golden}
}

// Crawl runs the requested chains for a date, sequentially, and returns
// the paths of the archives written. Chains with an existing SUCCESS run
// are skipped. Per-chain failures are reported as FAILED and never abort
// the batch; a STARTED status left by a crash counts as not-successful and
// is retried on the next invocation.
func (c *Crawler) Crawl(ctx context.Context, date time.Time, chains []string) ([]string, error) {
	logger := log.With().Str("component", "crawler").Str("date", date.Format("2006-01-02")).Logger()

	if len(chains) == 0 {
		chains = RegisteredChains()
	}

	successful, err := c.reporter.SuccessfulRuns(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query successful runs: %w", err)
	}
	done := make(map[string]bool, len(successful))
	for _, chain := range successful {
		done[chain] = true
	}

	tempDir, err := os.MkdirTemp("", "catalog-crawl-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dateStr := date.Format("2006-01-02")
	var archives []string

	for _, chain := range chains {
		if done[chain] {
			logger.Info().Str("chain", chain).Msg("already crawled, skipping")
			continue
		}
		if ctx.Err() != nil {
			return archives, ctx.Err()
		}

		path, err := c.crawlChain(ctx, chain, date, dateStr, tempDir, logger)
		if err != nil {
			logger.Error().Str("chain", chain).Err(err).Msg("chain crawl failed")
			continue
		}
		archives = append(archives, path)
	}

	return archives, nil
}

func (c *Crawler) crawlChain(ctx context.Context, chain string, date time.Time, dateStr, tempDir string, logger zerolog.Logger) (string, error) {
	adapter, err := GetAdapter(chain)
	if err != nil {
		return "", err
	}

	start := time.Now()
	if err := c.reporter.Report(ctx, RunStatus{ChainName: chain, CrawlDate: dateStr, Status: "STARTED"}); err != nil {
		return "", fmt.Errorf("failed to report STARTED: %w", err)
	}

	stores, err := adapter.GetAllProducts(ctx, date)
	if err == nil && len(stores) == 0 {
		err = &NoDataError{Chain: chain, Date: date}
	}

	var counters Counters
	var archivePath string
	if err == nil {
		// Stage into the temp dir first so a partial write never lands
		// in the store.
		staged := filepath.Join(tempDir, chain+".zip")
		counters, err = WriteArchive(staged, chain, date, stores, c.golden)
		if err == nil {
			archivePath, err = c.store.Put(ctx, date, chain, staged)
		}
	}

	elapsed := time.Since(start).Seconds()
	telemetry.CrawlDurationSeconds.WithLabelValues(chain).Observe(elapsed)

	if err != nil {
		msg := err.Error()
		telemetry.CrawlRunsTotal.WithLabelValues(chain, "FAILED").Inc()
		if repErr := c.reporter.Report(ctx, RunStatus{
			ChainName: chain, CrawlDate: dateStr, Status: "FAILED",
			ErrorMessage: &msg, ElapsedTime: elapsed,
		}); repErr != nil {
			logger.Error().Str("chain", chain).Err(repErr).Msg("failed to report FAILED status")
		}
		return "", err
	}

	telemetry.CrawlRunsTotal.WithLabelValues(chain, "SUCCESS").Inc()
	if err := c.reporter.Report(ctx, RunStatus{
		ChainName: chain, CrawlDate: dateStr, Status: "SUCCESS",
		NStores: counters.NStores, NProducts: counters.NProducts, NPrices: counters.NPrices,
		ElapsedTime: elapsed,
	}); err != nil {
		logger.Error().Str("chain", chain).Err(err).Msg("failed to report SUCCESS status")
	}

	logger.Info().Str("chain", chain).
		Int("stores", counters.NStores).
		Int("products", counters.NProducts).
		Int("prices", counters.NPrices).
		Float64("elapsed", elapsed).
		Msg("chain crawled")

	return archivePath, nil
}
