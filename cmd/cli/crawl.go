package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/crawler"
	"github.com/kosarica/catalog-service/internal/crawler/chains"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/httpclient"
	"github.com/kosarica/catalog-service/internal/httpclient/ratelimit"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

var (
	crawlDate   string
	crawlChains []string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl chain price portals into daily ZIP archives",
	Long: `Crawl every registered chain's price portal for one date and write a
ZIP archive per chain under the configured archive root. Chains that
already have a SUCCESS run for the date are skipped; per-chain failures
are reported to the control plane and do not abort the batch.`,
	Example: `  catalog-service crawl
  catalog-service crawl --date 2026-08-25
  catalog-service crawl --chains konzum,lidl`,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&crawlDate, "date", "", "Crawl date (YYYY-MM-DD, defaults to today)")
	crawlCmd.Flags().StringSliceVar(&crawlChains, "chains", nil, "Chains to crawl (defaults to all registered)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	date, err := parseDateFlag(crawlDate)
	if err != nil {
		return err
	}

	for _, chain := range crawlChains {
		if !crawler.IsValidChain(chain) {
			return fmt.Errorf("unknown chain %q, registered: %s",
				chain, strings.Join(crawler.RegisteredChains(), ", "))
		}
	}

	chains.SetClient(httpclient.NewClient(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		MaxRetries:        cfg.RateLimit.MaxRetries,
		InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
		MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
	}, cfg.Crawler.UserAgent))

	golden, err := crawler.LoadGoldenMap(ctx, database.Pool())
	if err != nil {
		return fmt.Errorf("failed to load golden products: %w", err)
	}
	logger.Info().Int("golden_products", len(golden)).Msg("Golden map loaded")

	store, err := storage.NewLocalArchiveStore(cfg.Crawler.Root)
	if err != nil {
		return err
	}

	reporter := crawler.NewHTTPStatusReporter(
		httpclient.NewClientDefault(),
		cfg.Crawler.ControlPlaneURL,
		cfg.Crawler.InternalAPIKey,
	)

	archives, err := crawler.NewCrawler(store, reporter, golden).Crawl(ctx, date, crawlChains)
	if err != nil {
		return err
	}

	logger.Info().
		Str("date", date.Format("2006-01-02")).
		Int("archives", len(archives)).
		Msg("Crawl batch finished")

	if err := telemetry.PushMetrics(cfg.Metrics.PushgatewayURL, "catalog-crawler"); err != nil {
		logger.Warn().Err(err).Msg("Failed to push metrics")
	}
	return nil
}
