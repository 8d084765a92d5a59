package importer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanBarcode(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
	}{
		{"valid EAN-13", "3850123456789", "3850123456789"},
		{"valid 8-digit", "38501234", "38501234"},
		{"synthetic passthrough", "roto:P1", "roto:P1"},
		{"too short", "1234567", "roto:P1"},
		{"letters", "38501ABC56789", "roto:P1"},
		{"empty", "", "roto:P1"},
		{"whitespace around valid", " 3850123456789 ", "3850123456789"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanBarcode("roto", "P1", tc.raw))
		})
	}
}

func TestCleanBarcodeOtherChainPrefixIsNotSynthetic(t *testing.T) {
	// A "konzum:" prefix seen while importing roto is not a valid roto
	// synthetic barcode and gets replaced.
	assert.Equal(t, "roto:P9", CleanBarcode("roto", "P9", "konzum:123"))
}

func TestCoercePrice(t *testing.T) {
	v := CoercePrice("1.09")
	require.NotNil(t, v)
	assert.Equal(t, "1.09", *v)

	assert.Nil(t, CoercePrice(""))
	assert.Nil(t, CoercePrice("0"))
	assert.Nil(t, CoercePrice("0.00"))
	assert.Nil(t, CoercePrice("abc"))

	v = CoercePrice(" 2.50 ")
	require.NotNil(t, v)
	assert.Equal(t, "2.5", *v)
}

func TestChainFromArchive(t *testing.T) {
	assert.Equal(t, "konzum", chainFromArchive("/data/archives/2025-07-03/konzum.zip"))
	assert.Equal(t, "roto", chainFromArchive("roto.zip"))
}

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractArchive(t *testing.T) {
	path := writeTestZip(t, map[string]string{
		"stores.csv":   "store_id,type,address,city,zipcode\n001,,,Zagreb,\n",
		"products.csv": "product_id,barcode,name,brand,category,unit,quantity\n",
		"readme.txt":   "ignored",
	})

	dest := t.TempDir()
	files, err := extractArchive(path, dest)
	require.NoError(t, err)

	assert.Len(t, files, 2)
	assert.Contains(t, files, "stores.csv")
	assert.Contains(t, files, "products.csv")
	assert.NotContains(t, files, "readme.txt")

	content, err := os.ReadFile(files["stores.csv"])
	require.NoError(t, err)
	assert.Contains(t, string(content), "Zagreb")
}

func TestExtractArchiveStripsPaths(t *testing.T) {
	path := writeTestZip(t, map[string]string{
		"nested/dir/prices.csv": "store_id,product_id,price,unit_price,best_price_30,anchor_price,special_price\n",
	})

	dest := t.TempDir()
	files, err := extractArchive(path, dest)
	require.NoError(t, err)

	require.Contains(t, files, "prices.csv")
	assert.Equal(t, filepath.Join(dest, "prices.csv"), files["prices.csv"])
}
