package importer

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
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

	require.NoError(t, runTestMigrations(ctx, pool))
	return pool
}

func runTestMigrations(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
		CREATE TABLE chains (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			code TEXT NOT NULL UNIQUE
		);

		CREATE TABLE stores (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			chain_id BIGINT NOT NULL REFERENCES chains(id),
			code TEXT NOT NULL,
			type TEXT,
			address TEXT,
			city TEXT,
			zipcode TEXT,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			phone TEXT,
			UNIQUE (chain_id, code)
		);

		CREATE TABLE products (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			ean TEXT NOT NULL UNIQUE,
			brand TEXT,
			name TEXT,
			quantity TEXT,
			unit TEXT
		);

		CREATE TABLE chain_products (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			chain_id BIGINT NOT NULL REFERENCES chains(id),
			product_id BIGINT NOT NULL REFERENCES products(id),
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			brand TEXT,
			category TEXT,
			unit TEXT,
			quantity TEXT,
			is_processed BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (chain_id, code)
		);

		CREATE TABLE prices (
			chain_product_id BIGINT NOT NULL REFERENCES chain_products(id),
			store_id BIGINT NOT NULL REFERENCES stores(id),
			price_date DATE NOT NULL,
			regular_price NUMERIC,
			special_price NUMERIC,
			unit_price NUMERIC,
			best_price_30 NUMERIC,
			anchor_price NUMERIC,
			PRIMARY KEY (chain_product_id, store_id, price_date)
		);

		CREATE TABLE chain_prices (
			chain_product_id BIGINT NOT NULL,
			price_date DATE NOT NULL,
			min_price NUMERIC NOT NULL,
			max_price NUMERIC NOT NULL,
			avg_price NUMERIC NOT NULL,
			PRIMARY KEY (chain_product_id, price_date)
		);

		CREATE TABLE chain_stats (
			chain_id BIGINT NOT NULL,
			price_date DATE NOT NULL,
			price_count BIGINT NOT NULL,
			store_count BIGINT NOT NULL,
			PRIMARY KEY (chain_id, price_date)
		);

		CREATE TABLE import_runs (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			crawl_run_id BIGINT,
			chain_name TEXT NOT NULL,
			import_date DATE NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			n_stores INT NOT NULL DEFAULT 0,
			n_products INT NOT NULL DEFAULT 0,
			n_prices INT NOT NULL DEFAULT 0,
			elapsed DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			unzipped_path TEXT,
			UNIQUE (chain_name, import_date)
		);`
	_, err := db.Exec(ctx, schema)
	return err
}

func rotoFixture(t *testing.T) string {
	return writeTestZip(t, map[string]string{
		"stores.csv": "store_id,type,address,city,zipcode\n" +
			"001,supermarket,Ilica 1,Zagreb,10000\n" +
			"002,,Riva 2,Split,21000\n",
		"products.csv": "product_id,barcode,name,brand,category,unit,quantity\n" +
			"P1,3850123456789,Mlijeko 1L,Dukat,Mlijecni proizvodi,l,1\n" +
			"P2,bad-barcode,Kruh polubijeli,,Pekara,g,500\n",
		"prices.csv": "store_id,product_id,price,unit_price,best_price_30,anchor_price,special_price\n" +
			"001,P1,1.09,1.09,,,\n" +
			"001,P2,0.89,1.78,,,\n" +
			"002,P1,1.15,1.15,,,\n" +
			"001,P1,1.09,1.09,,,\n" + // in-batch duplicate
			"002,P9,9.99,,,,\n", // unknown product
	})
}

func TestImportChainIdempotence(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)

	im := New(pool, 2, time.Minute)
	date := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	zipPath := rotoFixture(t)

	run, err := im.ImportChain(ctx, zipPath, "roto", date)
	require.NoError(t, err)
	assert.Equal(t, database.RunSuccess, run.Status)
	assert.Equal(t, 2, run.NStores)
	assert.Equal(t, 2, run.NProducts)
	assert.Equal(t, 3, run.NPrices, "duplicate and unknown rows are dropped")

	// Bad barcode got a synthetic EAN
	var ean string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT p.ean FROM products p JOIN chain_products cp ON cp.product_id = p.id WHERE cp.code = 'P2'`).Scan(&ean))
	assert.Equal(t, "roto:P2", ean)

	// Second run is SKIPPED with no new prices
	run2, err := im.ImportChain(ctx, zipPath, "roto", date)
	require.NoError(t, err)
	assert.Equal(t, database.RunSkipped, run2.Status)
	assert.Zero(t, run2.NPrices)

	var priceCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM prices`).Scan(&priceCount))
	assert.Equal(t, 3, priceCount)

	// The stored run keeps its SUCCESS status
	var status string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT status FROM import_runs WHERE chain_name = 'roto' AND import_date = $1`, date).Scan(&status))
	assert.Equal(t, database.RunSuccess, status)
}

func TestComputeChainPricesIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)

	im := New(pool, 1, time.Minute)
	date := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := im.ImportChain(ctx, rotoFixture(t), "roto", date)
	require.NoError(t, err)

	require.NoError(t, im.ComputeChainPrices(ctx, date))

	type agg struct{ min, max, avg string }
	read := func() map[int64]agg {
		rows, err := pool.Query(ctx,
			`SELECT chain_product_id, min_price::text, max_price::text, avg_price::text FROM chain_prices WHERE price_date = $1`, date)
		require.NoError(t, err)
		defer rows.Close()
		out := make(map[int64]agg)
		for rows.Next() {
			var id int64
			var a agg
			require.NoError(t, rows.Scan(&id, &a.min, &a.max, &a.avg))
			out[id] = a
		}
		return out
	}

	first := read()
	require.Len(t, first, 2)

	require.NoError(t, im.ComputeChainPrices(ctx, date))
	assert.Equal(t, first, read())

	require.NoError(t, im.ComputeChainStats(ctx, date))
	var priceCount, storeCount int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT price_count, store_count FROM chain_stats WHERE price_date = $1`, date).Scan(&priceCount, &storeCount))
	assert.Equal(t, int64(3), priceCount)
	assert.Equal(t, int64(2), storeCount)
}

func TestImportRunFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	pool := setupTestDB(ctx, t)

	im := New(pool, 1, time.Minute)
	date := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := im.ImportChain(ctx, "/nonexistent/archive.zip", "ghost", date)
	require.Error(t, err)

	var status string
	var errMsg *string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT status, error FROM import_runs WHERE chain_name = 'ghost' AND import_date = $1`, date).Scan(&status, &errMsg))
	assert.Equal(t, database.RunFailed, status)
	require.NotNil(t, errMsg)
	assert.Contains(t, *errMsg, "archive")
}
