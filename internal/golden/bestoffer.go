package golden

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kosarica/catalog-service/internal/database"
)

// OfferUpdater recomputes golden prices and the per-product best offer.
type OfferUpdater struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
	now  func() time.Time
}

// NewOfferUpdater creates an updater bound to a pool.
func NewOfferUpdater(pool *pgxpool.Pool) *OfferUpdater {
	return &OfferUpdater{
		pool: pool,
		log:  log.With().Str("component", "bestoffer").Logger(),
		now:  time.Now,
	}
}

type goldenProduct struct {
	id            int64
	baseUnitType  string
	variants      []database.Variant
	seasonalStart *int
	seasonalEnd   *int
}

// UpdateRange recomputes GPrices and best offers for golden products with
// id in [startID, endID] for a date. Per-product failures are logged and
// skipped.
func (u *OfferUpdater) UpdateRange(ctx context.Context, date time.Time, startID, endID int64) error {
	products, err := u.loadProducts(ctx, startID, endID)
	if err != nil {
		return err
	}

	for _, gp := range products {
		if err := u.updateProduct(ctx, date, gp); err != nil {
			u.log.Error().Int64("g_product_id", gp.id).Err(err).Msg("failed to update offers")
		}
	}
	return nil
}

func (u *OfferUpdater) loadProducts(ctx context.Context, startID, endID int64) ([]goldenProduct, error) {
	rows, err := u.pool.Query(ctx, `
		SELECT id, base_unit_type, variants, seasonal_start_month, seasonal_end_month
		FROM g_products WHERE id BETWEEN $1 AND $2`, startID, endID)
	if err != nil {
		return nil, fmt.Errorf("failed to load golden products: %w", err)
	}
	defer rows.Close()

	var products []goldenProduct
	for rows.Next() {
		var gp goldenProduct
		var variantsJSON []byte
		if err := rows.Scan(&gp.id, &gp.baseUnitType, &variantsJSON, &gp.seasonalStart, &gp.seasonalEnd); err != nil {
			return nil, fmt.Errorf("failed to scan golden product: %w", err)
		}
		if err := json.Unmarshal(variantsJSON, &gp.variants); err != nil {
			return nil, fmt.Errorf("bad variants for g_product %d: %w", gp.id, err)
		}
		products = append(products, gp)
	}
	return products, rows.Err()
}

func (u *OfferUpdater) updateProduct(ctx context.Context, date time.Time, gp goldenProduct) error {
	rows, err := u.pool.Query(ctx, `
		SELECT pr.store_id, pr.regular_price::text, pr.special_price::text
		FROM prices pr
		JOIN chain_products cp ON cp.id = pr.chain_product_id
		JOIN products p ON p.id = cp.product_id
		JOIN g_products g ON g.ean = p.ean
		WHERE g.id = $1 AND pr.price_date = $2`, gp.id, date)
	if err != nil {
		return fmt.Errorf("failed to load prices: %w", err)
	}

	type priceRow struct {
		storeID          int64
		regular, special *decimal.Decimal
	}
	var prices []priceRow
	for rows.Next() {
		var r priceRow
		var regularStr, specialStr *string
		if err := rows.Scan(&r.storeID, &regularStr, &specialStr); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan price: %w", err)
		}
		if r.regular, err = parseDecimalPtr(regularStr); err != nil {
			rows.Close()
			return err
		}
		if r.special, err = parseDecimalPtr(specialStr); err != nil {
			rows.Close()
			return err
		}
		prices = append(prices, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	inSeason := InSeason(int(u.now().Month()), gp.seasonalStart, gp.seasonalEnd)

	for _, price := range prices {
		effective := EffectivePrice(price.regular, price.special)
		if effective == nil {
			continue
		}
		perKg, perL, perPiece := UnitPrices(*effective, gp.baseUnitType, gp.variants)

		_, err := u.pool.Exec(ctx, `
			INSERT INTO g_prices (product_id, store_id, price_date, regular_price, special_price,
				price_per_kg, price_per_l, price_per_piece, is_on_special_offer)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric, $9)
			ON CONFLICT (product_id, store_id, price_date) DO UPDATE SET
				regular_price = EXCLUDED.regular_price,
				special_price = EXCLUDED.special_price,
				price_per_kg = EXCLUDED.price_per_kg,
				price_per_l = EXCLUDED.price_per_l,
				price_per_piece = EXCLUDED.price_per_piece,
				is_on_special_offer = EXCLUDED.is_on_special_offer`,
			gp.id, price.storeID, date,
			decimalPtrString(price.regular), decimalPtrString(price.special),
			decimalPtrString(perKg), decimalPtrString(perL), decimalPtrString(perPiece),
			price.special != nil)
		if err != nil {
			return fmt.Errorf("failed to upsert g_price: %w", err)
		}

		candidate := CandidateUnitPrice(gp.baseUnitType, perKg, perL, perPiece)
		if candidate == nil {
			continue
		}
		if err := u.UpsertBestOffer(ctx, gp.id, gp.baseUnitType, *candidate, price.storeID, inSeason); err != nil {
			return err
		}
	}
	return nil
}

// UpsertBestOffer applies the monotonic-minimum rule for one candidate
// unit price. The conditional upsert serializes concurrent updates per
// product row: the stored value only ever decreases, NULL counting as
// positive infinity. When inSeason is set the same rule also maintains
// lowest_price_in_season.
func (u *OfferUpdater) UpsertBestOffer(ctx context.Context, productID int64, baseUnitType string, candidate decimal.Decimal, storeID int64, inSeason bool) error {
	var perKg, perL, perPiece *string
	v := candidate.String()
	switch baseUnitType {
	case database.BaseUnitWeight:
		perKg = &v
	case database.BaseUnitVolume:
		perL = &v
	case database.BaseUnitCount:
		perPiece = &v
	default:
		return fmt.Errorf("unknown base_unit_type %q", baseUnitType)
	}
	var seasonal *string
	if inSeason {
		seasonal = &v
	}

	_, err := u.pool.Exec(ctx, `
		INSERT INTO g_product_best_offers (product_id, best_unit_price_per_kg, best_unit_price_per_l,
			best_unit_price_per_piece, lowest_price_in_season, best_price_store_id, best_price_found_at)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6, NOW())
		ON CONFLICT (product_id) DO UPDATE SET
			best_unit_price_per_kg = CASE
				WHEN EXCLUDED.best_unit_price_per_kg IS NOT NULL
				 AND (g_product_best_offers.best_unit_price_per_kg IS NULL
				      OR EXCLUDED.best_unit_price_per_kg < g_product_best_offers.best_unit_price_per_kg)
				THEN EXCLUDED.best_unit_price_per_kg
				ELSE g_product_best_offers.best_unit_price_per_kg END,
			best_unit_price_per_l = CASE
				WHEN EXCLUDED.best_unit_price_per_l IS NOT NULL
				 AND (g_product_best_offers.best_unit_price_per_l IS NULL
				      OR EXCLUDED.best_unit_price_per_l < g_product_best_offers.best_unit_price_per_l)
				THEN EXCLUDED.best_unit_price_per_l
				ELSE g_product_best_offers.best_unit_price_per_l END,
			best_unit_price_per_piece = CASE
				WHEN EXCLUDED.best_unit_price_per_piece IS NOT NULL
				 AND (g_product_best_offers.best_unit_price_per_piece IS NULL
				      OR EXCLUDED.best_unit_price_per_piece < g_product_best_offers.best_unit_price_per_piece)
				THEN EXCLUDED.best_unit_price_per_piece
				ELSE g_product_best_offers.best_unit_price_per_piece END,
			lowest_price_in_season = CASE
				WHEN EXCLUDED.lowest_price_in_season IS NOT NULL
				 AND (g_product_best_offers.lowest_price_in_season IS NULL
				      OR EXCLUDED.lowest_price_in_season < g_product_best_offers.lowest_price_in_season)
				THEN EXCLUDED.lowest_price_in_season
				ELSE g_product_best_offers.lowest_price_in_season END,
			best_price_store_id = CASE
				WHEN (EXCLUDED.best_unit_price_per_kg IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_kg IS NULL
				           OR EXCLUDED.best_unit_price_per_kg < g_product_best_offers.best_unit_price_per_kg))
				  OR (EXCLUDED.best_unit_price_per_l IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_l IS NULL
				           OR EXCLUDED.best_unit_price_per_l < g_product_best_offers.best_unit_price_per_l))
				  OR (EXCLUDED.best_unit_price_per_piece IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_piece IS NULL
				           OR EXCLUDED.best_unit_price_per_piece < g_product_best_offers.best_unit_price_per_piece))
				THEN EXCLUDED.best_price_store_id
				ELSE g_product_best_offers.best_price_store_id END,
			best_price_found_at = CASE
				WHEN (EXCLUDED.best_unit_price_per_kg IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_kg IS NULL
				           OR EXCLUDED.best_unit_price_per_kg < g_product_best_offers.best_unit_price_per_kg))
				  OR (EXCLUDED.best_unit_price_per_l IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_l IS NULL
				           OR EXCLUDED.best_unit_price_per_l < g_product_best_offers.best_unit_price_per_l))
				  OR (EXCLUDED.best_unit_price_per_piece IS NOT NULL
				      AND (g_product_best_offers.best_unit_price_per_piece IS NULL
				           OR EXCLUDED.best_unit_price_per_piece < g_product_best_offers.best_unit_price_per_piece))
				THEN EXCLUDED.best_price_found_at
				ELSE g_product_best_offers.best_price_found_at END`,
		productID, perKg, perL, perPiece, seasonal, storeID)
	if err != nil {
		return fmt.Errorf("failed to upsert best offer: %w", err)
	}
	return nil
}

func parseDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("bad numeric value %q: %w", *s, err)
	}
	return &d, nil
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
