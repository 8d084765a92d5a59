package chains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func TestParseStoreFilename(t *testing.T) {
	meta, err := parseStoreFilename("https://www.konzum.hr/cjenici/SUPERMARKET-Ilica_1-Zagreb-10000-0043-20250702.csv?v=1")
	require.NoError(t, err)

	assert.Equal(t, "supermarket", meta.Type)
	assert.Equal(t, "Ilica 1", meta.Address)
	assert.Equal(t, "Zagreb", meta.City)
	assert.Equal(t, "10000", meta.Zipcode)
	assert.Equal(t, "0043", meta.Code)
}

func TestParseStoreFilenameRejectsShortNames(t *testing.T) {
	_, err := parseStoreFilename("cjenik.csv")
	assert.Error(t, err)
}

func TestParseCSVStoreMapsMinistryColumns(t *testing.T) {
	body := []byte("SIFRA PROIZVODA;NAZIV PROIZVODA;MARKA PROIZVODA;NETO KOLICINA;JEDINICA MJERE;MALOPRODAJNA CIJENA;MPC ZA VRIJEME POSEBNOG OBLIKA PRODAJE;BARKOD;KATEGORIJA PROIZVODA\n" +
		"12345;Mlijeko 2,8% 1L;Dukat;1;l;1,09;;3850123456789;Mlijecni proizvodi\n" +
		"67890;Vrhnje 400g;Dukat;400;g;8,00;6,00;3850123456790;Mlijecni proizvodi\n" +
		";Bez sifre;;;;1,00;;;\n")

	store, err := parseCSVStore(storeMeta{Code: "001", City: "Zagreb"}, body, ministryColumns)
	require.NoError(t, err)

	require.Len(t, store.Products, 2, "row without code or barcode is dropped")

	first := store.Products[0]
	assert.Equal(t, "12345", first.Code)
	assert.Equal(t, "3850123456789", first.Barcode)
	assert.Equal(t, "Mlijeko 2,8% 1L", first.Name)
	assert.Equal(t, "1.09", first.Price)
	assert.Equal(t, "", first.SpecialPrice)

	second := store.Products[1]
	assert.Equal(t, "8.00", second.Price)
	assert.Equal(t, "6.00", second.SpecialPrice)
}

func TestParseCSVStoreMissingRequiredColumns(t *testing.T) {
	body := []byte("FOO;BAR\n1;2\n")
	_, err := parseCSVStore(storeMeta{Code: "001"}, body, ministryColumns)
	assert.Error(t, err)
}

func TestRegisteredFleet(t *testing.T) {
	for _, chain := range []string{"konzum", "lidl", "plodine", "studenac", "ktc", "metro", "roto"} {
		adapter, err := crawler.GetAdapter(chain)
		require.NoError(t, err)
		assert.Equal(t, chain, adapter.Chain())
	}
}
