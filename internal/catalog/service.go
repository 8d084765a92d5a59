// Package catalog serves read queries over golden products, prices and
// stores. Both the REST handlers and the chat tools go through it.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/kosarica/catalog-service/internal/apperrors"
	"github.com/kosarica/catalog-service/internal/database"
)

// Embedder produces query embeddings for the semantic search leg.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service bundles the catalog read operations over one pool.
type Service struct {
	pool     *pgxpool.Pool
	embedder Embedder
	log      zerolog.Logger
}

// NewService creates a catalog service. embedder may be nil, which
// disables the semantic search leg.
func NewService(pool *pgxpool.Pool, embedder Embedder) *Service {
	return &Service{
		pool:     pool,
		embedder: embedder,
		log:      log.With().Str("component", "catalog").Logger(),
	}
}

// ProductDetails is the canonical record plus its best-offer fields.
type ProductDetails struct {
	database.GProduct
	BestOffer *database.GProductBestOffer `json:"best_offer"`
}

// GetProductDetails returns one golden product with its best offer, or a
// NotFound error.
func (s *Service) GetProductDetails(ctx context.Context, productID int64) (*ProductDetails, error) {
	var d ProductDetails
	var variants, keywords []byte
	var bestKg, bestL, bestPiece, seasonal *string
	var bestStoreID *int64
	var foundAt *time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT g.id, g.ean, g.canonical_name, g.brand, g.category, g.base_unit_type,
			g.variants, g.keywords, g.is_generic_product, g.seasonal_start_month, g.seasonal_end_month,
			g.created_at, g.updated_at,
			o.best_unit_price_per_kg::text, o.best_unit_price_per_l::text, o.best_unit_price_per_piece::text,
			o.lowest_price_in_season::text, o.best_price_store_id, o.best_price_found_at
		FROM g_products g
		LEFT JOIN g_product_best_offers o ON o.product_id = g.id
		WHERE g.id = $1`, productID).Scan(
		&d.ID, &d.EAN, &d.CanonicalName, &d.Brand, &d.Category, &d.BaseUnitType,
		&variants, &keywords, &d.IsGenericProduct, &d.SeasonalStartMonth, &d.SeasonalEndMonth,
		&d.CreatedAt, &d.UpdatedAt,
		&bestKg, &bestL, &bestPiece, &seasonal, &bestStoreID, &foundAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("product %d not found", productID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if err := json.Unmarshal(variants, &d.Variants); err != nil {
		return nil, fmt.Errorf("bad variants for product %d: %w", productID, err)
	}
	if err := json.Unmarshal(keywords, &d.Keywords); err != nil {
		return nil, fmt.Errorf("bad keywords for product %d: %w", productID, err)
	}

	if bestStoreID != nil || bestKg != nil || bestL != nil || bestPiece != nil {
		offer := &database.GProductBestOffer{ProductID: d.ID, BestPriceStoreID: bestStoreID}
		if offer.BestUnitPricePerKg, err = parseDecimal(bestKg); err != nil {
			return nil, err
		}
		if offer.BestUnitPricePerL, err = parseDecimal(bestL); err != nil {
			return nil, err
		}
		if offer.BestUnitPricePerPc, err = parseDecimal(bestPiece); err != nil {
			return nil, err
		}
		if offer.LowestPriceInSeason, err = parseDecimal(seasonal); err != nil {
			return nil, err
		}
		if foundAt != nil {
			offer.BestPriceFoundAt = *foundAt
		}
		d.BestOffer = offer
	}
	return &d, nil
}

// StorePrice is one store's latest price for a product.
type StorePrice struct {
	StoreID          int64            `json:"store_id"`
	StoreCode        string           `json:"store_code"`
	ChainCode        string           `json:"chain_code"`
	Address          *string          `json:"address"`
	City             *string          `json:"city"`
	PriceDate        string           `json:"price_date"`
	RegularPrice     *decimal.Decimal `json:"regular_price"`
	SpecialPrice     *decimal.Decimal `json:"special_price"`
	PricePerKg       *decimal.Decimal `json:"price_per_kg"`
	PricePerL        *decimal.Decimal `json:"price_per_l"`
	PricePerPiece    *decimal.Decimal `json:"price_per_piece"`
	IsOnSpecialOffer bool             `json:"is_on_special_offer"`
}

// GetProductPricesByLocation returns the latest price of a product at
// each of the given stores, cheapest effective price first.
func (s *Service) GetProductPricesByLocation(ctx context.Context, productID int64, storeIDs []int64) ([]StorePrice, error) {
	if len(storeIDs) == 0 {
		return []StorePrice{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT store_id, store_code, chain_code, address, city, price_date,
			regular_price, special_price, price_per_kg, price_per_l, price_per_piece, is_on_special_offer
		FROM (
			SELECT DISTINCT ON (gp.store_id)
				gp.store_id, s.code AS store_code, c.code AS chain_code, s.address, s.city,
				gp.price_date::text AS price_date,
				gp.regular_price::text AS regular_price, gp.special_price::text AS special_price,
				gp.price_per_kg::text AS price_per_kg, gp.price_per_l::text AS price_per_l,
				gp.price_per_piece::text AS price_per_piece, gp.is_on_special_offer,
				LEAST(COALESCE(gp.special_price, gp.regular_price), COALESCE(gp.regular_price, gp.special_price)) AS effective
			FROM g_prices gp
			JOIN stores s ON s.id = gp.store_id
			JOIN chains c ON c.id = s.chain_id
			WHERE gp.product_id = $1 AND gp.store_id = ANY($2)
			ORDER BY gp.store_id, gp.price_date DESC
		) latest
		ORDER BY effective ASC NULLS LAST`, productID, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices by location: %w", err)
	}
	defer rows.Close()

	prices := []StorePrice{}
	for rows.Next() {
		var p StorePrice
		var regular, special, perKg, perL, perPiece *string
		if err := rows.Scan(&p.StoreID, &p.StoreCode, &p.ChainCode, &p.Address, &p.City, &p.PriceDate,
			&regular, &special, &perKg, &perL, &perPiece, &p.IsOnSpecialOffer); err != nil {
			return nil, fmt.Errorf("failed to scan store price: %w", err)
		}
		if p.RegularPrice, err = parseDecimal(regular); err != nil {
			return nil, err
		}
		if p.SpecialPrice, err = parseDecimal(special); err != nil {
			return nil, err
		}
		if p.PricePerKg, err = parseDecimal(perKg); err != nil {
			return nil, err
		}
		if p.PricePerL, err = parseDecimal(perL); err != nil {
			return nil, err
		}
		if p.PricePerPiece, err = parseDecimal(perPiece); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// NearbyStore is a store hit with its distance from the query point.
type NearbyStore struct {
	database.Store
	ChainCode      string  `json:"chain_code"`
	DistanceMeters float64 `json:"distance_meters"`
}

// FindNearbyStores returns stores within radiusMeters of (lat, lon),
// nearest first, optionally restricted to one chain.
func (s *Service) FindNearbyStores(ctx context.Context, lat, lon, radiusMeters float64, chainCode string) ([]NearbyStore, error) {
	query := `
		SELECT s.id, s.chain_id, s.code, s.type, s.address, s.city, s.zipcode, s.lat, s.lon, s.phone,
			c.code,
			ST_Distance(
				ST_SetSRID(ST_MakePoint(s.lon, s.lat), 4326)::geography,
				ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography) AS distance_meters
		FROM stores s
		JOIN chains c ON c.id = s.chain_id
		WHERE s.lat IS NOT NULL AND s.lon IS NOT NULL
			AND ST_DWithin(
				ST_SetSRID(ST_MakePoint(s.lon, s.lat), 4326)::geography,
				ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography, $3)`
	args := []any{lat, lon, radiusMeters}
	if chainCode != "" {
		query += " AND c.code = $4"
		args = append(args, chainCode)
	}
	query += "\n\t\tORDER BY distance_meters ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby stores: %w", err)
	}
	defer rows.Close()

	stores := []NearbyStore{}
	for rows.Next() {
		var st NearbyStore
		if err := rows.Scan(&st.ID, &st.ChainID, &st.Code, &st.Type, &st.Address, &st.City,
			&st.Zipcode, &st.Lat, &st.Lon, &st.Phone, &st.ChainCode, &st.DistanceMeters); err != nil {
			return nil, fmt.Errorf("failed to scan nearby store: %w", err)
		}
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

// GetUserLocations returns the saved locations of a user.
func (s *Service) GetUserLocations(ctx context.Context, userID int64) ([]database.UserLocation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, lat, lon FROM user_locations WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user locations: %w", err)
	}
	defer rows.Close()

	locations := []database.UserLocation{}
	for rows.Next() {
		var l database.UserLocation
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.Lat, &l.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan user location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("bad numeric value %q: %w", *s, err)
	}
	return &d, nil
}
