package golden

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/ai"
)

const validResponse = `{
	"canonical_name": "Limun",
	"brand": null,
	"category": "Voće",
	"base_unit_type": "WEIGHT",
	"variants": [{"unit": "kg", "value": 1}],
	"text_for_embedding": "Svježi limun, citrusno voće prodavano na kilogram",
	"keywords": ["limun", "citrus", "voće", "svježe", "žuto", "kiselo", "vitamin", "agrumi"],
	"is_generic_product": true,
	"seasonal_start_month": 11,
	"seasonal_end_month": 2
}`

func TestParseRecordValid(t *testing.T) {
	record, err := parseRecord(validResponse)
	require.NoError(t, err)

	assert.Equal(t, "Limun", record.CanonicalName)
	assert.Equal(t, "WEIGHT", record.BaseUnitType)
	assert.Len(t, record.Keywords, 8)
	assert.True(t, record.IsGenericProduct)
	require.NotNil(t, record.SeasonalStartMonth)
	assert.Equal(t, 11, *record.SeasonalStartMonth)
}

func TestParseRecordStripsCodeFence(t *testing.T) {
	_, err := parseRecord("```json\n" + validResponse + "\n```")
	assert.NoError(t, err)
}

func TestParseRecordRejectsWrongKeywordCount(t *testing.T) {
	bad := `{
		"canonical_name": "Limun", "category": "Voće", "base_unit_type": "WEIGHT",
		"variants": [], "text_for_embedding": "x",
		"keywords": ["samo", "tri", "riječi"],
		"is_generic_product": true
	}`
	_, err := parseRecord(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords")
}

func TestParseRecordRejectsBadUnitType(t *testing.T) {
	bad := `{
		"canonical_name": "Limun", "category": "Voće", "base_unit_type": "MASS",
		"variants": [], "text_for_embedding": "x",
		"keywords": ["a","b","c","d","e","f","g","h"],
		"is_generic_product": true
	}`
	_, err := parseRecord(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_unit_type")
}

func TestParseRecordRejectsHalfSeasonalWindow(t *testing.T) {
	bad := `{
		"canonical_name": "Limun", "category": "Voće", "base_unit_type": "WEIGHT",
		"variants": [], "text_for_embedding": "x",
		"keywords": ["a","b","c","d","e","f","g","h"],
		"is_generic_product": true,
		"seasonal_start_month": 5
	}`
	_, err := parseRecord(bad)
	assert.Error(t, err)
}

func TestParseRecordRejectsNonJSON(t *testing.T) {
	_, err := parseRecord("Nažalost, ne mogu odgovoriti JSON-om.")
	assert.Error(t, err)
}

// scriptedProvider answers Complete calls from a queue.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	embedding []float32
	embedErr  error
}

func (p *scriptedProvider) Complete(ctx context.Context, system, user string) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i >= len(p.responses) {
		return "", fmt.Errorf("unexpected completion call %d", i)
	}
	return p.responses[i], nil
}

func (p *scriptedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedErr != nil {
		return nil, p.embedErr
	}
	if p.embedding != nil {
		return p.embedding, nil
	}
	return make([]float32, 768), nil
}

func (p *scriptedProvider) StreamChat(ctx context.Context, req ai.ChatRequest) (ai.Stream, error) {
	panic("not used")
}

func TestNormalizeWithRetryRecoversFromMalformed(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json at all", validResponse}}
	n := &Normalizer{provider: provider}

	record, err := n.normalizeWithRetry(context.Background(), &eanGroup{EAN: "123"})
	require.NoError(t, err)
	assert.Equal(t, "Limun", record.CanonicalName)
	assert.Equal(t, 2, provider.calls)
}

func TestNormalizeWithRetryGivesUpAfterTwoMalformed(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"junk", "more junk"}}
	n := &Normalizer{provider: provider}

	_, err := n.normalizeWithRetry(context.Background(), &eanGroup{EAN: "123"})
	require.Error(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestNormalizeWithRetryPropagatesProviderError(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("rate limited")}}
	n := &Normalizer{provider: provider}

	_, err := n.normalizeWithRetry(context.Background(), &eanGroup{EAN: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 1, provider.calls, "provider errors are not retried here")
}

func TestPartition(t *testing.T) {
	batches := partition(1, 10, 4)
	require.Len(t, batches, 3)
	assert.Equal(t, batch{1, 4}, batches[0])
	assert.Equal(t, batch{5, 8}, batches[1])
	assert.Equal(t, batch{9, 10}, batches[2])

	single := partition(7, 7, 100)
	require.Len(t, single, 1)
	assert.Equal(t, batch{7, 7}, single[0])
}
