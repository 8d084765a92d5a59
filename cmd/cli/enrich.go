package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/golden"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

var (
	enrichDate          string
	enrichSkipNormalize bool
	enrichSkipOffers    bool
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Normalize products with the LLM and recompute best offers",
	Long: `Run the golden-record enrichment: normalize unprocessed chain products
into golden products via the LLM (canonical name, category, keywords,
embedding), then recompute unit prices and per-product best offers from
the day's imported prices.`,
	Example: `  catalog-service enrich
  catalog-service enrich --date 2026-08-25
  catalog-service enrich --skip-normalize`,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichDate, "date", "", "Price date for offer updates (YYYY-MM-DD, defaults to today)")
	enrichCmd.Flags().BoolVar(&enrichSkipNormalize, "skip-normalize", false, "Skip LLM normalization")
	enrichCmd.Flags().BoolVar(&enrichSkipOffers, "skip-offers", false, "Skip unit price and best offer updates")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	date, err := parseDateFlag(enrichDate)
	if err != nil {
		return err
	}

	if cfg.Golden.OpenAIAPIKey == "" && !enrichSkipNormalize {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}
	provider := ai.NewOpenAIProvider(cfg.Golden.OpenAIAPIKey, cfg.Golden.LLMModel, cfg.Golden.EmbeddingModel)

	orchestrator := golden.NewOrchestrator(database.Pool(), provider, cfg.Golden.BatchSize, cfg.Golden.Workers)

	if !enrichSkipNormalize {
		if err := orchestrator.NormalizeAll(ctx); err != nil {
			return fmt.Errorf("normalization failed: %w", err)
		}
	}
	if !enrichSkipOffers {
		if err := orchestrator.UpdateAllOffers(ctx, date); err != nil {
			return fmt.Errorf("offer update failed: %w", err)
		}
	}

	logger.Info().Str("date", date.Format("2006-01-02")).Msg("Enrichment finished")

	if err := telemetry.PushMetrics(cfg.Metrics.PushgatewayURL, "catalog-golden"); err != nil {
		logger.Warn().Err(err).Msg("Failed to push metrics")
	}
	return nil
}
