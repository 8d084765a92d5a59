package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/importer"
	"github.com/kosarica/catalog-service/internal/storage"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

var importDate string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the day's crawl archives into the catalog",
	Long: `Import every ZIP archive stored for one date into the relational
catalog: chains, stores, chain products, and the day's prices. Chains run
concurrently up to the configured limit; a chain that already has a
SUCCESS import for the date is skipped.`,
	Example: `  catalog-service import
  catalog-service import --date 2026-08-25`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDate, "date", "", "Import date (YYYY-MM-DD, defaults to today)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	date, err := parseDateFlag(importDate)
	if err != nil {
		return err
	}

	store, err := storage.NewLocalArchiveStore(cfg.Crawler.Root)
	if err != nil {
		return err
	}
	zips, err := store.List(ctx, date)
	if err != nil {
		return err
	}
	if len(zips) == 0 {
		return fmt.Errorf("no archives found for %s", date.Format("2006-01-02"))
	}

	im := importer.New(database.Pool(), cfg.Importer.Concurrency, cfg.Importer.ChainTimeout)
	results := im.Run(ctx, zips, date)

	failed := 0
	for _, res := range results {
		event := logger.Info()
		if res.Err != nil {
			failed++
			event = logger.Error().Err(res.Err)
		}
		event.Str("chain", res.Chain).Msg("Chain import finished")
	}

	logger.Info().
		Str("date", date.Format("2006-01-02")).
		Int("chains", len(results)).
		Int("failed", failed).
		Msg("Import batch finished")

	if err := telemetry.PushMetrics(cfg.Metrics.PushgatewayURL, "catalog-importer"); err != nil {
		logger.Warn().Err(err).Msg("Failed to push metrics")
	}

	if failed == len(results) {
		return fmt.Errorf("all %d chain imports failed", failed)
	}
	return nil
}
