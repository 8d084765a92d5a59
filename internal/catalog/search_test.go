package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchQueryLexicalOnly(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Query: "limun", Limit: 20}, "")

	assert.Contains(t, query, "canonical_name ILIKE")
	assert.Contains(t, query, "keywords ?| $2::text[]")
	assert.NotContains(t, query, "<=>", "no vector leg without an embedding")
	assert.Contains(t, query, "ORDER BY relevance DESC")
	require.Len(t, args, 4)
	assert.Equal(t, "limun", args[0])
	assert.Equal(t, []string{"limun"}, args[1])
	assert.Equal(t, 20, args[2])
	assert.Equal(t, 0, args[3])
}

func TestBuildSearchQueryWithEmbedding(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Query: "limun", Limit: 10}, "[0.1,0.2]")

	assert.Contains(t, query, "g.embedding <=> $3::vector")
	assert.NotContains(t, query, "WHERE (g.canonical_name", "semantic leg drops the hard lexical filter")
	assert.Equal(t, "[0.1,0.2]", args[2])
}

func TestBuildSearchQueryBestValueKg(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{
		Query:    "sir",
		SortBy:   SortBestValueKg,
		StoreIDs: []int64{1, 2},
		Limit:    10,
	}, "")

	assert.Contains(t, query, "g.base_unit_type = $3")
	assert.Contains(t, query, "MIN(gp.price_per_kg)")
	assert.Contains(t, query, "gp.store_id = ANY($4)")
	assert.Contains(t, query, "ORDER BY mv.min_unit_price ASC, relevance DESC")
	assert.Equal(t, "WEIGHT", args[2])
	assert.Equal(t, []int64{1, 2}, args[3])
}

func TestBuildSearchQueryBestValuePieceWithoutStores(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{Query: "jaja", SortBy: SortBestValuePiece, Limit: 10}, "")

	assert.Contains(t, query, "MIN(gp.price_per_piece)")
	assert.NotContains(t, query, "store_id = ANY")
	assert.Equal(t, "COUNT", args[2])
}

func TestBuildSearchQueryFilters(t *testing.T) {
	query, args := buildSearchQuery(SearchParams{
		Query:    "mlijeko",
		Category: "Mliječni proizvodi",
		Brand:    "Dukat",
		Limit:    5,
	}, "")

	assert.Contains(t, query, "g.category ILIKE $3")
	assert.Contains(t, query, "g.brand ILIKE $4")
	assert.Equal(t, "Mliječni proizvodi", args[2])
	assert.Equal(t, "Dukat", args[3])
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"svježi", "sir"}, queryTerms("  Svježi  SIR "))
	assert.Equal(t, []string{""}, queryTerms("   "))
}

func TestSortByValid(t *testing.T) {
	for _, s := range []SortBy{"", SortRelevance, SortBestValueKg, SortBestValueL, SortBestValuePiece} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, SortBy("cheapest").Valid())
}
