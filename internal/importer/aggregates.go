package importer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// aggregatesMu serializes aggregate recomputation across concurrent
// importers; the queries scan the whole date partition and must observe a
// consistent snapshot.
var aggregatesMu sync.Mutex

// ComputeChainPrices recomputes the per-(chain_product, date) min/max/avg
// aggregates. The effective price of a row is the lesser of regular and
// special, whichever are present. Idempotent: rerunning for the same date
// leaves the rows unchanged.
func (im *Importer) ComputeChainPrices(ctx context.Context, date time.Time) error {
	aggregatesMu.Lock()
	defer aggregatesMu.Unlock()

	_, err := im.pool.Exec(ctx, `
		INSERT INTO chain_prices (chain_product_id, price_date, min_price, max_price, avg_price)
		SELECT chain_product_id,
		       price_date,
		       MIN(LEAST(COALESCE(regular_price, special_price), COALESCE(special_price, regular_price))),
		       MAX(LEAST(COALESCE(regular_price, special_price), COALESCE(special_price, regular_price))),
		       AVG(LEAST(COALESCE(regular_price, special_price), COALESCE(special_price, regular_price)))
		FROM prices
		WHERE price_date = $1
		GROUP BY chain_product_id, price_date
		ON CONFLICT (chain_product_id, price_date) DO UPDATE SET
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			avg_price = EXCLUDED.avg_price`, date)
	if err != nil {
		return fmt.Errorf("failed to compute chain prices: %w", err)
	}
	return nil
}

// ComputeChainStats recomputes the per-chain price and store counters for
// a date.
func (im *Importer) ComputeChainStats(ctx context.Context, date time.Time) error {
	aggregatesMu.Lock()
	defer aggregatesMu.Unlock()

	_, err := im.pool.Exec(ctx, `
		INSERT INTO chain_stats (chain_id, price_date, price_count, store_count)
		SELECT cp.chain_id,
		       p.price_date,
		       COUNT(*),
		       COUNT(DISTINCT p.store_id)
		FROM prices p
		JOIN chain_products cp ON cp.id = p.chain_product_id
		WHERE p.price_date = $1
		GROUP BY cp.chain_id, p.price_date
		ON CONFLICT (chain_id, price_date) DO UPDATE SET
			price_count = EXCLUDED.price_count,
			store_count = EXCLUDED.store_count`, date)
	if err != nil {
		return fmt.Errorf("failed to compute chain stats: %w", err)
	}
	return nil
}
