package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/parsers/csv"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

// Importer loads chain archives into the normalized schema.
type Importer struct {
	pool         *pgxpool.Pool
	concurrency  int64
	chainTimeout time.Duration
	log          zerolog.Logger
}

// New creates an importer bound to a pool. concurrency bounds how many
// chain imports run in parallel; chainTimeout bounds each one.
func New(pool *pgxpool.Pool, concurrency int, chainTimeout time.Duration) *Importer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Importer{
		pool:         pool,
		concurrency:  int64(concurrency),
		chainTimeout: chainTimeout,
		log:          log.With().Str("component", "importer").Logger(),
	}
}

// RunResult pairs a chain with its import outcome.
type RunResult struct {
	Chain string
	Run   *database.ImportRun
	Err   error
}

// Run imports the given archives for one date with bounded concurrency,
// then recomputes the per-chain aggregates once for the date.
func (im *Importer) Run(ctx context.Context, zips []string, date time.Time) []RunResult {
	sem := semaphore.NewWeighted(im.concurrency)
	results := make([]RunResult, len(zips))
	var wg sync.WaitGroup

	for i, zipPath := range zips {
		chain := chainFromArchive(zipPath)

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = RunResult{Chain: chain, Err: err}
			continue
		}

		wg.Add(1)
		go func(i int, zipPath, chain string) {
			defer wg.Done()
			defer sem.Release(1)

			chainCtx, cancel := context.WithTimeout(ctx, im.chainTimeout)
			defer cancel()

			run, err := im.ImportChain(chainCtx, zipPath, chain, date)
			results[i] = RunResult{Chain: chain, Run: run, Err: err}
		}(i, zipPath, chain)
	}
	wg.Wait()

	if err := im.ComputeChainPrices(ctx, date); err != nil {
		im.log.Error().Err(err).Msg("failed to compute chain prices")
	}
	if err := im.ComputeChainStats(ctx, date); err != nil {
		im.log.Error().Err(err).Msg("failed to compute chain stats")
	}

	return results
}

func chainFromArchive(zipPath string) string {
	return strings.TrimSuffix(filepath.Base(zipPath), ".zip")
}

// ImportChain imports one chain archive for a date. A chain that already
// has a SUCCESS run for the date is skipped; the stored run is left
// untouched and the returned run carries status SKIPPED.
func (im *Importer) ImportChain(ctx context.Context, zipPath, chain string, date time.Time) (*database.ImportRun, error) {
	start := time.Now()
	dateStr := date.Format("2006-01-02")
	logger := im.log.With().Str("chain", chain).Str("date", dateStr).Logger()

	var existingStatus *string
	err := im.pool.QueryRow(ctx,
		`SELECT status FROM import_runs WHERE chain_name = $1 AND import_date = $2`,
		chain, date).Scan(&existingStatus)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to query existing import run: %w", err)
	}
	if existingStatus != nil && *existingStatus == database.RunSuccess {
		logger.Info().Msg("already imported, skipping")
		telemetry.ImportRunsTotal.WithLabelValues(chain, database.RunSkipped).Inc()
		return &database.ImportRun{ChainName: chain, ImportDate: date, Status: database.RunSkipped}, nil
	}

	if err := im.upsertRun(ctx, chain, date, database.RunStarted, nil, counters{}, 0); err != nil {
		return nil, err
	}

	run, err := im.importChainData(ctx, zipPath, chain, date, logger)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		msg := err.Error()
		telemetry.ImportRunsTotal.WithLabelValues(chain, database.RunFailed).Inc()
		if upErr := im.upsertRun(ctx, chain, date, database.RunFailed, &msg, counters{}, elapsed); upErr != nil {
			logger.Error().Err(upErr).Msg("failed to record FAILED run")
		}
		return nil, err
	}

	run.Elapsed = elapsed
	telemetry.ImportRunsTotal.WithLabelValues(chain, database.RunSuccess).Inc()
	telemetry.ImportedPricesTotal.WithLabelValues(chain).Add(float64(run.NPrices))
	if err := im.upsertRun(ctx, chain, date, database.RunSuccess, nil,
		counters{run.NStores, run.NProducts, run.NPrices}, elapsed); err != nil {
		logger.Error().Err(err).Msg("failed to record SUCCESS run")
	}

	logger.Info().
		Int("stores", run.NStores).
		Int("products", run.NProducts).
		Int("prices", run.NPrices).
		Float64("elapsed", elapsed).
		Msg("chain imported")
	return run, nil
}

type counters struct {
	nStores   int
	nProducts int
	nPrices   int
}

func (im *Importer) upsertRun(ctx context.Context, chain string, date time.Time, status string, errMsg *string, c counters, elapsed float64) error {
	_, err := im.pool.Exec(ctx, `
		INSERT INTO import_runs (chain_name, import_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (chain_name, import_date) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			n_stores = EXCLUDED.n_stores,
			n_products = EXCLUDED.n_products,
			n_prices = EXCLUDED.n_prices,
			elapsed = EXCLUDED.elapsed,
			timestamp = EXCLUDED.timestamp`,
		chain, date, status, errMsg, c.nStores, c.nProducts, c.nPrices, elapsed)
	if err != nil {
		return fmt.Errorf("failed to upsert import run: %w", err)
	}
	return nil
}

func (im *Importer) importChainData(ctx context.Context, zipPath, chain string, date time.Time, logger zerolog.Logger) (*database.ImportRun, error) {
	tempDir, err := os.MkdirTemp("", "catalog-import-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	files, err := extractArchive(zipPath, tempDir)
	if err != nil {
		return nil, err
	}

	chainID, err := im.upsertChain(ctx, chain)
	if err != nil {
		return nil, err
	}

	storeIDs, err := im.importStores(ctx, chainID, files["stores.csv"])
	if err != nil {
		return nil, err
	}

	chainProductIDs, nProducts, err := im.importProducts(ctx, chainID, chain, files["products.csv"])
	if err != nil {
		return nil, err
	}

	nPrices, err := im.importPrices(ctx, date, files["prices.csv"], storeIDs, chainProductIDs, logger)
	if err != nil {
		return nil, err
	}

	return &database.ImportRun{
		ChainName:  chain,
		ImportDate: date,
		Status:     database.RunSuccess,
		NStores:    len(storeIDs),
		NProducts:  nProducts,
		NPrices:    nPrices,
	}, nil
}

func (im *Importer) upsertChain(ctx context.Context, code string) (int64, error) {
	var id int64
	err := im.pool.QueryRow(ctx, `
		INSERT INTO chains (code) VALUES ($1)
		ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
		RETURNING id`, code).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert chain %s: %w", code, err)
	}
	return id, nil
}

func (im *Importer) importStores(ctx context.Context, chainID int64, path string) (map[string]int64, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stores.csv: %w", err)
	}

	storeIDs := make(map[string]int64, len(rows))
	for _, row := range rows {
		// stores.csv: store_id, type, address, city, zipcode
		code := csv.Field(row, 0)
		if code == "" {
			continue
		}
		var id int64
		err := im.pool.QueryRow(ctx, `
			INSERT INTO stores (chain_id, code, type, address, city, zipcode)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))
			ON CONFLICT (chain_id, code) DO UPDATE SET
				type = COALESCE(EXCLUDED.type, stores.type),
				address = COALESCE(EXCLUDED.address, stores.address),
				city = COALESCE(EXCLUDED.city, stores.city),
				zipcode = COALESCE(EXCLUDED.zipcode, stores.zipcode)
			RETURNING id`,
			chainID, code, csv.Field(row, 1), csv.Field(row, 2), csv.Field(row, 3), csv.Field(row, 4)).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert store %s: %w", code, err)
		}
		storeIDs[code] = id
	}
	return storeIDs, nil
}

var digitBarcode = regexp.MustCompile(`^\d{8,}$`)

// CleanBarcode validates a scraped barcode. Accepted forms are a synthetic
// "<chain>:<code>" value or at least 8 decimal digits; anything else is
// replaced with a synthetic barcode from the chain's product code.
func CleanBarcode(chain, productCode, raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, chain+":") {
		return raw
	}
	if digitBarcode.MatchString(raw) {
		return raw
	}
	return chain + ":" + productCode
}

func (im *Importer) importProducts(ctx context.Context, chainID int64, chain, path string) (map[string]int64, int, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read products.csv: %w", err)
	}

	// products.csv: product_id, barcode, name, brand, category, unit, quantity
	parsed := make([]productRow, 0, len(rows))
	eans := make([]string, 0, len(rows))
	seenCodes := make(map[string]bool, len(rows))
	for _, row := range rows {
		code := csv.Field(row, 0)
		if code == "" || seenCodes[code] {
			continue
		}
		seenCodes[code] = true
		p := productRow{
			code:     code,
			ean:      CleanBarcode(chain, code, csv.Field(row, 1)),
			name:     csv.Field(row, 2),
			brand:    csv.Field(row, 3),
			category: csv.Field(row, 4),
			unit:     csv.Field(row, 5),
			quantity: csv.Field(row, 6),
		}
		parsed = append(parsed, p)
		eans = append(eans, p.ean)
	}
	if len(parsed) == 0 {
		return map[string]int64{}, 0, nil
	}

	productIDs, err := im.ensureProducts(ctx, parsed, eans)
	if err != nil {
		return nil, 0, err
	}

	batch := &pgx.Batch{}
	for _, p := range parsed {
		batch.Queue(`
			INSERT INTO chain_products (chain_id, product_id, code, name, brand, category, unit, quantity, is_processed)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), false)
			ON CONFLICT (chain_id, code) DO NOTHING`,
			chainID, productIDs[p.ean], p.code, p.name, p.brand, p.category, p.unit, p.quantity)
	}
	if err := im.pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to insert chain products: %w", err)
	}

	// Read back ids for all codes in the batch, inserted or pre-existing.
	codes := make([]string, 0, len(parsed))
	for _, p := range parsed {
		codes = append(codes, p.code)
	}
	cpRows, err := im.pool.Query(ctx,
		`SELECT code, id FROM chain_products WHERE chain_id = $1 AND code = ANY($2)`,
		chainID, codes)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read back chain products: %w", err)
	}
	defer cpRows.Close()

	chainProductIDs := make(map[string]int64, len(parsed))
	for cpRows.Next() {
		var code string
		var id int64
		if err := cpRows.Scan(&code, &id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan chain product: %w", err)
		}
		chainProductIDs[code] = id
	}
	return chainProductIDs, len(parsed), cpRows.Err()
}

type productRow struct {
	code, ean, name, brand, category, unit, quantity string
}

func (im *Importer) ensureProducts(ctx context.Context, parsed []productRow, eans []string) (map[string]int64, error) {
	productIDs := make(map[string]int64, len(eans))

	rows, err := im.pool.Query(ctx, `SELECT ean, id FROM products WHERE ean = ANY($1)`, eans)
	if err != nil {
		return nil, fmt.Errorf("failed to query known products: %w", err)
	}
	for rows.Next() {
		var ean string
		var id int64
		if err := rows.Scan(&ean, &id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		productIDs[ean] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range parsed {
		if _, known := productIDs[p.ean]; known {
			continue
		}
		var id int64
		err := im.pool.QueryRow(ctx, `
			INSERT INTO products (ean, name, brand, quantity, unit)
			VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
			ON CONFLICT (ean) DO UPDATE SET ean = EXCLUDED.ean
			RETURNING id`,
			p.ean, p.name, p.brand, p.quantity, p.unit).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to insert product %s: %w", p.ean, err)
		}
		productIDs[p.ean] = id
	}
	return productIDs, nil
}

// CoercePrice turns a raw CSV price string into an insertable value.
// Empty strings and zero values become nil (no price observed).
func CoercePrice(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return nil
	}
	v := d.String()
	return &v
}

type priceKey struct {
	chainProductID int64
	storeID        int64
}

func (im *Importer) importPrices(ctx context.Context, date time.Time, path string, storeIDs, chainProductIDs map[string]int64, logger zerolog.Logger) (int, error) {
	rows, err := readCSVFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read prices.csv: %w", err)
	}

	// prices.csv: store_id, product_id, price, unit_price, best_price_30, anchor_price, special_price
	batch := &pgx.Batch{}
	seen := make(map[priceKey]bool, len(rows))
	skipped := 0
	for _, row := range rows {
		storeID, okStore := storeIDs[csv.Field(row, 0)]
		chainProductID, okProduct := chainProductIDs[csv.Field(row, 1)]
		if !okStore || !okProduct {
			skipped++
			continue
		}

		key := priceKey{chainProductID, storeID}
		if seen[key] {
			continue
		}
		seen[key] = true

		regular := CoercePrice(csv.Field(row, 2))
		special := CoercePrice(csv.Field(row, 6))
		if regular == nil && special == nil {
			skipped++
			continue
		}

		batch.Queue(`
			INSERT INTO prices (chain_product_id, store_id, price_date, regular_price, special_price, unit_price, best_price_30, anchor_price)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8::numeric)
			ON CONFLICT (chain_product_id, store_id, price_date) DO NOTHING`,
			chainProductID, storeID, date, regular, special,
			CoercePrice(csv.Field(row, 3)), CoercePrice(csv.Field(row, 4)), CoercePrice(csv.Field(row, 5)))
	}
	if skipped > 0 {
		logger.Warn().Int("count", skipped).Msg("price rows skipped (unknown store/product or no price)")
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := im.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := 0; i < batch.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert price batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func readCSVFile(path string) ([][]string, error) {
	if path == "" {
		return nil, fmt.Errorf("file missing from archive")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := csv.Parse(data, csv.Options{Delimiter: csv.DelimiterComma, HasHeader: true})
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}
