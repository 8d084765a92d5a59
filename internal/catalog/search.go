package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kosarica/catalog-service/internal/database"
)

// SortBy selects the ordering of search results.
type SortBy string

const (
	SortRelevance      SortBy = "relevance"
	SortBestValueKg    SortBy = "best_value_kg"
	SortBestValueL     SortBy = "best_value_l"
	SortBestValuePiece SortBy = "best_value_piece"
)

// valueColumn maps a best-value sort to the g_prices column it minimizes
// and the base unit type it restricts results to.
func (s SortBy) valueColumn() (column, baseUnitType string, ok bool) {
	switch s {
	case SortBestValueKg:
		return "price_per_kg", database.BaseUnitWeight, true
	case SortBestValueL:
		return "price_per_l", database.BaseUnitVolume, true
	case SortBestValuePiece:
		return "price_per_piece", database.BaseUnitCount, true
	}
	return "", "", false
}

// Valid reports whether the sort value is one of the accepted options.
func (s SortBy) Valid() bool {
	switch s {
	case "", SortRelevance, SortBestValueKg, SortBestValueL, SortBestValuePiece:
		return true
	}
	return false
}

// SearchParams are the inputs of a product search.
type SearchParams struct {
	Query    string
	StoreIDs []int64
	SortBy   SortBy
	Category string
	Brand    string
	Limit    int
	Offset   int
}

// SearchResult is one search hit. MinUnitPrice is only set for
// best-value sorts.
type SearchResult struct {
	ID               int64            `json:"id"`
	EAN              string           `json:"ean"`
	CanonicalName    string           `json:"canonical_name"`
	Brand            *string          `json:"brand"`
	Category         string           `json:"category"`
	BaseUnitType     string           `json:"base_unit_type"`
	IsGenericProduct bool             `json:"is_generic_product"`
	Relevance        float64          `json:"relevance"`
	MinUnitPrice     *decimal.Decimal `json:"min_unit_price,omitempty"`
}

// queryTerms splits the query into lowercase terms for the keyword match.
func queryTerms(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return []string{""}
	}
	return fields
}

// buildSearchQuery assembles the hybrid search statement. The lexical leg
// scores substring hits on the canonical name plus keyword matches; the
// semantic leg, present when a query embedding is available, adds cosine
// similarity. Best-value sorts restrict to the matching base unit type,
// join the minimum unit price over g_prices (optionally limited to
// store_ids) and order by it ascending with relevance as tiebreaker.
func buildSearchQuery(p SearchParams, embedding string) (string, []any) {
	args := []any{p.Query, queryTerms(p.Query)}
	score := `(CASE WHEN g.canonical_name ILIKE '%' || $1 || '%' THEN 1.0 ELSE 0.0 END
			+ CASE WHEN g.keywords ?| $2::text[] THEN 0.5 ELSE 0.0 END`
	if embedding != "" {
		args = append(args, embedding)
		score += fmt.Sprintf(`
			+ (1.0 - (g.embedding <=> $%d::vector))`, len(args))
	}
	score += ")"

	var conds []string
	if embedding == "" {
		conds = append(conds, `(g.canonical_name ILIKE '%' || $1 || '%' OR g.keywords ?| $2::text[])`)
	}
	if p.Category != "" {
		args = append(args, p.Category)
		conds = append(conds, fmt.Sprintf("g.category ILIKE $%d", len(args)))
	}
	if p.Brand != "" {
		args = append(args, p.Brand)
		conds = append(conds, fmt.Sprintf("g.brand ILIKE $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT g.id, g.ean, g.canonical_name, g.brand, g.category, g.base_unit_type, g.is_generic_product, ")
	sb.WriteString(score)
	sb.WriteString(" AS relevance")

	column, baseUnitType, valueSort := p.SortBy.valueColumn()
	if valueSort {
		args = append(args, baseUnitType)
		conds = append(conds, fmt.Sprintf("g.base_unit_type = $%d", len(args)))

		storeFilter := ""
		if len(p.StoreIDs) > 0 {
			args = append(args, p.StoreIDs)
			storeFilter = fmt.Sprintf(" AND gp.store_id = ANY($%d)", len(args))
		}
		sb.WriteString(fmt.Sprintf(`, mv.min_unit_price::text
			FROM g_products g
			JOIN LATERAL (
				SELECT MIN(gp.%s) AS min_unit_price
				FROM g_prices gp
				WHERE gp.product_id = g.id%s
			) mv ON mv.min_unit_price IS NOT NULL`, column, storeFilter))
	} else {
		sb.WriteString(", NULL::text AS min_unit_price\n\t\t\tFROM g_products g")
	}

	if len(conds) > 0 {
		sb.WriteString("\n\t\t\tWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if valueSort {
		sb.WriteString("\n\t\t\tORDER BY mv.min_unit_price ASC, relevance DESC, g.id")
	} else {
		sb.WriteString("\n\t\t\tORDER BY relevance DESC, g.id")
	}

	args = append(args, p.Limit)
	sb.WriteString(fmt.Sprintf("\n\t\t\tLIMIT $%d", len(args)))
	args = append(args, p.Offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	return sb.String(), args
}

// SearchProducts runs the hybrid search. A failing embedding call
// degrades to lexical-only search rather than failing the request.
func (s *Service) SearchProducts(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	var embedding string
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, p.Query)
		if err != nil {
			s.log.Warn().Err(err).Msg("query embedding failed, falling back to lexical search")
		} else {
			embedding = database.VectorLiteral(vec)
		}
	}

	query, args := buildSearchQuery(p, embedding)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	results := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		var minPrice *string
		if err := rows.Scan(&r.ID, &r.EAN, &r.CanonicalName, &r.Brand, &r.Category,
			&r.BaseUnitType, &r.IsGenericProduct, &r.Relevance, &minPrice); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if minPrice != nil {
			d, err := decimal.NewFromString(*minPrice)
			if err != nil {
				return nil, fmt.Errorf("bad min unit price %q: %w", *minPrice, err)
			}
			r.MinUnitPrice = &d
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
