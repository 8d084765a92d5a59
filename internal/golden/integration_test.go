package golden

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kosarica/catalog-service/internal/database"
)

func setupTestDB(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("cannot start postgres container (no Docker?): %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema := `
		CREATE TABLE chains (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			code TEXT NOT NULL UNIQUE
		);

		CREATE TABLE stores (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			chain_id BIGINT NOT NULL REFERENCES chains(id),
			code TEXT NOT NULL,
			UNIQUE (chain_id, code)
		);

		CREATE TABLE products (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			ean TEXT NOT NULL UNIQUE
		);

		CREATE TABLE chain_products (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			chain_id BIGINT NOT NULL REFERENCES chains(id),
			product_id BIGINT NOT NULL REFERENCES products(id),
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			is_processed BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (chain_id, code)
		);

		CREATE TABLE prices (
			chain_product_id BIGINT NOT NULL REFERENCES chain_products(id),
			store_id BIGINT NOT NULL REFERENCES stores(id),
			price_date DATE NOT NULL,
			regular_price NUMERIC,
			special_price NUMERIC,
			PRIMARY KEY (chain_product_id, store_id, price_date)
		);

		CREATE TABLE g_products (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			ean TEXT NOT NULL UNIQUE,
			canonical_name TEXT NOT NULL,
			base_unit_type TEXT NOT NULL,
			variants JSONB NOT NULL DEFAULT '[]',
			seasonal_start_month INT,
			seasonal_end_month INT
		);

		CREATE TABLE g_prices (
			product_id BIGINT NOT NULL REFERENCES g_products(id),
			store_id BIGINT NOT NULL,
			price_date DATE NOT NULL,
			regular_price NUMERIC,
			special_price NUMERIC,
			price_per_kg NUMERIC,
			price_per_l NUMERIC,
			price_per_piece NUMERIC,
			is_on_special_offer BOOLEAN NOT NULL DEFAULT false,
			PRIMARY KEY (product_id, store_id, price_date)
		);

		CREATE TABLE g_product_best_offers (
			product_id BIGINT PRIMARY KEY REFERENCES g_products(id),
			best_unit_price_per_kg NUMERIC,
			best_unit_price_per_l NUMERIC,
			best_unit_price_per_piece NUMERIC,
			lowest_price_in_season NUMERIC,
			best_price_store_id BIGINT,
			best_price_found_at TIMESTAMPTZ
		);`
	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)
	return pool
}

func TestUpsertBestOfferKeepsMinimum(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)

	var productID int64
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO g_products (ean, canonical_name, base_unit_type)
		VALUES ('3850111111111', 'Jogurt', 'WEIGHT') RETURNING id`).Scan(&productID))

	u := NewOfferUpdater(pool)
	candidates := []struct {
		price   string
		storeID int64
	}{
		{"5.00", 11},
		{"4.50", 22},
		{"4.80", 33},
	}
	for _, c := range candidates {
		d, err := decimal.NewFromString(c.price)
		require.NoError(t, err)
		require.NoError(t, u.UpsertBestOffer(ctx, productID, database.BaseUnitWeight, d, c.storeID, false))
	}

	var perKg string
	var storeID int64
	var seasonal *string
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT best_unit_price_per_kg::text, best_price_store_id, lowest_price_in_season::text
		FROM g_product_best_offers WHERE product_id = $1`, productID).Scan(&perKg, &storeID, &seasonal))
	assert.Equal(t, "4.5", perKg, "4.80 must not displace the earlier 4.50")
	assert.Equal(t, int64(22), storeID)
	assert.Nil(t, seasonal, "out-of-season candidates never touch the seasonal column")
}

func TestUpsertBestOfferSeasonalColumn(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)

	var productID int64
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO g_products (ean, canonical_name, base_unit_type)
		VALUES ('3850222222222', 'Mandarina', 'WEIGHT') RETURNING id`).Scan(&productID))

	u := NewOfferUpdater(pool)
	require.NoError(t, u.UpsertBestOffer(ctx, productID, database.BaseUnitWeight, decimal.RequireFromString("3.20"), 1, true))
	require.NoError(t, u.UpsertBestOffer(ctx, productID, database.BaseUnitWeight, decimal.RequireFromString("2.90"), 2, true))

	var seasonal string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT lowest_price_in_season::text FROM g_product_best_offers WHERE product_id = $1`, productID).Scan(&seasonal))
	assert.Equal(t, "2.9", seasonal)
}

func TestUpdateRangeComputesGoldenPrices(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)
	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)

	var chainID, storeA, storeB, productID, cpID, gpID int64
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO chains (code) VALUES ('roto') RETURNING id`).Scan(&chainID))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO stores (chain_id, code) VALUES ($1, '001') RETURNING id`, chainID).Scan(&storeA))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO stores (chain_id, code) VALUES ($1, '002') RETURNING id`, chainID).Scan(&storeB))
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO products (ean) VALUES ('3850333333333') RETURNING id`).Scan(&productID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO chain_products (chain_id, product_id, code, name)
		VALUES ($1, $2, 'P1', 'Sir Gauda 400g') RETURNING id`, chainID, productID).Scan(&cpID))
	require.NoError(t, pool.QueryRow(ctx, `
		INSERT INTO g_products (ean, canonical_name, base_unit_type, variants)
		VALUES ('3850333333333', 'Sir Gauda', 'WEIGHT', '[{"unit":"g","value":400}]') RETURNING id`).Scan(&gpID))

	_, err := pool.Exec(ctx, `
		INSERT INTO prices (chain_product_id, store_id, price_date, regular_price, special_price) VALUES
		($1, $2, $3, 8.00, 6.00),
		($1, $4, $3, 8.00, NULL)`, cpID, storeA, date, storeB)
	require.NoError(t, err)

	require.NoError(t, NewOfferUpdater(pool).UpdateRange(ctx, date, gpID, gpID))

	var perKg string
	var onSpecial bool
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT price_per_kg::text, is_on_special_offer FROM g_prices
		WHERE product_id = $1 AND store_id = $2 AND price_date = $3`, gpID, storeA, date).Scan(&perKg, &onSpecial))
	assert.Equal(t, "15", perKg, "special 6.00 for 400g is 15/kg")
	assert.True(t, onSpecial)

	require.NoError(t, pool.QueryRow(ctx, `
		SELECT price_per_kg::text, is_on_special_offer FROM g_prices
		WHERE product_id = $1 AND store_id = $2 AND price_date = $3`, gpID, storeB, date).Scan(&perKg, &onSpecial))
	assert.Equal(t, "20", perKg)
	assert.False(t, onSpecial)

	var bestKg string
	var bestStore int64
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT best_unit_price_per_kg::text, best_price_store_id
		FROM g_product_best_offers WHERE product_id = $1`, gpID).Scan(&bestKg, &bestStore))
	assert.Equal(t, "15", bestKg)
	assert.Equal(t, storeA, bestStore)

	// Rerunning the same date leaves everything unchanged.
	require.NoError(t, NewOfferUpdater(pool).UpdateRange(ctx, date, gpID, gpID))
	var nPrices int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM g_prices`).Scan(&nPrices))
	assert.Equal(t, 2, nPrices)
}
