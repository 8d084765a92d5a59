package golden

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

// Normalizer turns groups of chain products sharing an EAN into golden
// records via the LLM.
type Normalizer struct {
	pool     *pgxpool.Pool
	provider ai.Provider
	log      zerolog.Logger
}

// NewNormalizer creates a normalizer bound to a pool and provider.
func NewNormalizer(pool *pgxpool.Pool, provider ai.Provider) *Normalizer {
	return &Normalizer{
		pool:     pool,
		provider: provider,
		log:      log.With().Str("component", "normalizer").Logger(),
	}
}

// eanGroup aggregates the chain variants of one EAN.
type eanGroup struct {
	EAN            string   `json:"ean"`
	NameVariations []string `json:"name_variations"`
	Brands         []string `json:"brands"`
	Categories     []string `json:"categories"`
	Units          []string `json:"units"`
	chainProductIDs []int64
}

func (g *eanGroup) add(name, brand, category, unit *string, cpID int64) {
	appendUnique := func(dst []string, v *string) []string {
		if v == nil || *v == "" {
			return dst
		}
		for _, existing := range dst {
			if existing == *v {
				return dst
			}
		}
		return append(dst, *v)
	}
	g.NameVariations = appendUnique(g.NameVariations, name)
	g.Brands = appendUnique(g.Brands, brand)
	g.Categories = appendUnique(g.Categories, category)
	g.Units = appendUnique(g.Units, unit)
	g.chainProductIDs = append(g.chainProductIDs, cpID)
}

// ProcessRange normalizes all unprocessed EANs whose Product id falls in
// [startID, endID]. Per-EAN failures are logged and skipped; the batch
// continues. Returns the number of EANs fully processed.
func (n *Normalizer) ProcessRange(ctx context.Context, startID, endID int64) (int, error) {
	groups, err := n.loadGroups(ctx, startID, endID)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, group := range groups {
		if err := n.processEAN(ctx, group); err != nil {
			n.log.Error().Str("ean", group.EAN).Err(err).Msg("failed to normalize EAN")
			continue
		}
		processed++
	}
	return processed, nil
}

func (n *Normalizer) loadGroups(ctx context.Context, startID, endID int64) ([]*eanGroup, error) {
	rows, err := n.pool.Query(ctx, `
		SELECT p.ean, cp.id, cp.name, cp.brand, cp.category, cp.unit
		FROM products p
		JOIN chain_products cp ON cp.product_id = p.id
		WHERE p.id BETWEEN $1 AND $2 AND cp.is_processed = false
		ORDER BY p.ean`, startID, endID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed products: %w", err)
	}
	defer rows.Close()

	byEAN := make(map[string]*eanGroup)
	var order []string
	for rows.Next() {
		var ean, name string
		var cpID int64
		var brand, category, unit *string
		if err := rows.Scan(&ean, &cpID, &name, &brand, &category, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan chain product: %w", err)
		}
		group, ok := byEAN[ean]
		if !ok {
			group = &eanGroup{EAN: ean}
			byEAN[ean] = group
			order = append(order, ean)
		}
		group.add(&name, brand, category, unit, cpID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups := make([]*eanGroup, 0, len(order))
	for _, ean := range order {
		groups = append(groups, byEAN[ean])
	}
	return groups, nil
}

// llmRecord is the JSON shape the normalization prompt mandates.
type llmRecord struct {
	CanonicalName      string             `json:"canonical_name"`
	Brand              *string            `json:"brand"`
	Category           string             `json:"category"`
	BaseUnitType       string             `json:"base_unit_type"`
	Variants           []database.Variant `json:"variants"`
	TextForEmbedding   string             `json:"text_for_embedding"`
	Keywords           []string           `json:"keywords"`
	IsGenericProduct   bool               `json:"is_generic_product"`
	SeasonalStartMonth *int               `json:"seasonal_start_month"`
	SeasonalEndMonth   *int               `json:"seasonal_end_month"`
}

func (r *llmRecord) validate() error {
	if r.CanonicalName == "" {
		return fmt.Errorf("canonical_name is empty")
	}
	if r.Category == "" {
		return fmt.Errorf("category is empty")
	}
	if r.TextForEmbedding == "" {
		return fmt.Errorf("text_for_embedding is empty")
	}
	switch r.BaseUnitType {
	case database.BaseUnitWeight, database.BaseUnitVolume, database.BaseUnitCount:
	default:
		return fmt.Errorf("base_unit_type %q is not one of WEIGHT/VOLUME/COUNT", r.BaseUnitType)
	}
	if len(r.Keywords) != 8 {
		return fmt.Errorf("keywords has %d entries, want exactly 8", len(r.Keywords))
	}
	for _, m := range []*int{r.SeasonalStartMonth, r.SeasonalEndMonth} {
		if m != nil && (*m < 1 || *m > 12) {
			return fmt.Errorf("seasonal month %d out of range", *m)
		}
	}
	if (r.SeasonalStartMonth == nil) != (r.SeasonalEndMonth == nil) {
		return fmt.Errorf("seasonal window must set both months or neither")
	}
	return nil
}

// normalizeWithRetry asks the LLM for a canonical record, retrying once
// when the response is malformed.
func (n *Normalizer) normalizeWithRetry(ctx context.Context, group *eanGroup) (*llmRecord, error) {
	payload, err := json.Marshal(group)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variant group: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := n.provider.Complete(ctx, ai.NormalizerSystemPrompt, string(payload))
		if err != nil {
			return nil, fmt.Errorf("LLM call failed: %w", err)
		}

		record, err := parseRecord(raw)
		if err != nil {
			lastErr = err
			n.log.Warn().Str("ean", group.EAN).Int("attempt", attempt+1).Err(err).Msg("malformed LLM response")
			continue
		}
		return record, nil
	}
	telemetry.NormalizationFailuresTotal.WithLabelValues("malformed_response").Inc()
	return nil, fmt.Errorf("LLM response stayed malformed after retry: %w", lastErr)
}

func parseRecord(raw string) (*llmRecord, error) {
	// Models occasionally fence the JSON despite JSON mode.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var record llmRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := record.validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// processEAN creates the golden record for one EAN and marks its source
// rows processed, atomically. An EAN whose golden record already exists
// still gets its sources marked.
func (n *Normalizer) processEAN(ctx context.Context, group *eanGroup) error {
	tx, err := n.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingID int64
	err = tx.QueryRow(ctx, `SELECT id FROM g_products WHERE ean = $1`, group.EAN).Scan(&existingID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to check existing golden record: %w", err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		record, err := n.normalizeWithRetry(ctx, group)
		if err != nil {
			return err
		}

		embedding, err := n.provider.Embed(ctx, record.TextForEmbedding)
		if err != nil {
			telemetry.NormalizationFailuresTotal.WithLabelValues("embedding").Inc()
			return fmt.Errorf("embedding failed: %w", err)
		}

		variants, err := json.Marshal(record.Variants)
		if err != nil {
			return fmt.Errorf("failed to marshal variants: %w", err)
		}
		keywords, err := json.Marshal(record.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO g_products (ean, canonical_name, brand, category, base_unit_type, variants,
				text_for_embedding, keywords, is_generic_product, seasonal_start_month, seasonal_end_month,
				embedding, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8::jsonb, $9, $10, $11, $12::vector, NOW(), NOW())
			ON CONFLICT (ean) DO NOTHING`,
			group.EAN, record.CanonicalName, record.Brand, record.Category, record.BaseUnitType,
			string(variants), record.TextForEmbedding, string(keywords), record.IsGenericProduct,
			record.SeasonalStartMonth, record.SeasonalEndMonth, database.VectorLiteral(embedding))
		if err != nil {
			return fmt.Errorf("failed to insert golden record: %w", err)
		}
		if tag.RowsAffected() > 0 {
			telemetry.NormalizedProductsTotal.Inc()
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chain_products SET is_processed = true WHERE id = ANY($1)`,
		group.chainProductIDs); err != nil {
		return fmt.Errorf("failed to mark source rows processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
