package crawler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/database"
)

// LoadGoldenMap reads every golden product into an EAN-keyed map for the
// archive writer. Rows with unparseable variants are skipped.
func LoadGoldenMap(ctx context.Context, pool *pgxpool.Pool) (GoldenMap, error) {
	rows, err := pool.Query(ctx, `
		SELECT ean, id, base_unit_type, variants
		FROM g_products
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query golden products: %w", err)
	}
	defer rows.Close()

	golden := make(GoldenMap)
	for rows.Next() {
		var (
			ean, baseUnitType string
			id                int64
			variantsJSON      []byte
		)
		if err := rows.Scan(&ean, &id, &baseUnitType, &variantsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan golden product: %w", err)
		}

		var variants []database.Variant
		if len(variantsJSON) > 0 {
			if err := json.Unmarshal(variantsJSON, &variants); err != nil {
				continue
			}
		}
		golden[ean] = GoldenRecord{ID: id, BaseUnitType: baseUnitType, Variants: variants}
	}
	return golden, rows.Err()
}
