package csv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/parsers/charset"
)

func TestDetectDelimiterSemicolon(t *testing.T) {
	content := "NAZIV;CIJENA;BARKOD\nMlijeko 1L;1,09;3850123456789\nKruh;0,89;3850123456790\n"
	assert.Equal(t, DelimiterSemicolon, DetectDelimiter(content))
}

func TestDetectDelimiterTab(t *testing.T) {
	content := "name\tprice\nMlijeko\t1,09\n"
	assert.Equal(t, DelimiterTab, DetectDelimiter(content))
}

func TestParseHeaderAndRows(t *testing.T) {
	content := []byte("NAZIV PROIZVODA;MALOPRODAJNA CIJENA;BARKOD\nMlijeko 2,8% 1L;1,09;3850123456789\n\nKruh polubijeli;0,89;3850123456790\n")

	result, err := Parse(content, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"NAZIV PROIZVODA", "MALOPRODAJNA CIJENA", "BARKOD"}, result.Header)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Mlijeko 2,8% 1L", result.Rows[0][0])
	assert.Equal(t, "3850123456790", result.Rows[1][2])
}

func TestHeaderIndexFoldsDiacritics(t *testing.T) {
	result := &Result{Header: []string{"ŠIFRA PROIZVODA", "NAZIV", "CIJENA"}}

	assert.Equal(t, 0, result.HeaderIndex("sifra proizvoda"))
	assert.Equal(t, 2, result.HeaderIndex("CIJENA"))
	assert.Equal(t, -1, result.HeaderIndex("nepostojeci"))
}

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"12,99":    "12.99",
		"1.234,50": "1234.50",
		"3.99":     "3.99",
		" 0,89 ":   "0.89",
		"":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePrice(in), "input %q", in)
	}
}

func TestParseWindows1250Content(t *testing.T) {
	// "Mliječni" with 0xE8 (č) in Windows-1250, invalid as UTF-8
	raw := []byte("NAZIV;CIJENA\nMlije\xe8ni namaz;2,49\n")

	result, err := Parse(raw, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Mliječni namaz", result.Rows[0][0])
}

func TestFieldOutOfRange(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", Field(row, 1))
	assert.Equal(t, "", Field(row, 5))
	assert.Equal(t, "", Field(row, -1))
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, charset.EncodingUTF8, charset.DetectEncoding([]byte("Mliječni namaz")))
	assert.Equal(t, charset.EncodingWindows1250, charset.DetectEncoding([]byte("Mlije\xe8ni")))
}
