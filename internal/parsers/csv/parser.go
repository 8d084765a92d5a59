package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"strings"

	"github.com/kosarica/catalog-service/internal/parsers/charset"
)

// Delimiter represents supported CSV delimiters
type Delimiter rune

const (
	DelimiterComma     Delimiter = ','
	DelimiterSemicolon Delimiter = ';'
	DelimiterTab       Delimiter = '\t'
)

// Options represents CSV parser options
type Options struct {
	Delimiter Delimiter
	Encoding  charset.Encoding
	HasHeader bool
}

// DefaultOptions returns default CSV parser options: autodetect delimiter
// and encoding, first row is a header.
func DefaultOptions() Options {
	return Options{HasHeader: true}
}

// Result holds parsed rows plus the resolved header.
type Result struct {
	Header []string
	Rows   [][]string
}

// Parse decodes and parses raw CSV bytes. Encoding and delimiter are
// detected when not set in the options. Rows with a deviating field count
// are kept as-is (portal exports are sloppy about trailing delimiters).
func Parse(content []byte, opts Options) (*Result, error) {
	if opts.Encoding == "" {
		opts.Encoding = charset.DetectEncoding(content)
	}
	decoded, err := charset.Decode(content, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == 0 {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	r := stdcsv.NewReader(strings.NewReader(decoded))
	r.Comma = rune(opts.Delimiter)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	result := &Result{}
	start := 0
	if opts.HasHeader && len(records) > 0 {
		result.Header = trimFields(records[0])
		start = 1
	}
	for _, rec := range records[start:] {
		rec = trimFields(rec)
		if isEmptyRow(rec) {
			continue
		}
		result.Rows = append(result.Rows, rec)
	}
	return result, nil
}

// HeaderIndex resolves a header name to its column index, matching
// case-insensitively with Croatian diacritics folded.
func (r *Result) HeaderIndex(name string) int {
	want := normalizeHeader(name)
	for i, h := range r.Header {
		if normalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

// Field returns the column at idx of a row, "" when the row is short.
func Field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ParsePrice normalizes a Croatian price string ("12,99", "1.234,50") to a
// dot-decimal form. Empty input stays empty.
func ParsePrice(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, ",") {
		// Dots before a comma are thousands separators
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch r {
		case 'š', 'Š':
			return 's'
		case 'č', 'Č', 'ć', 'Ć':
			return 'c'
		case 'ž', 'Ž':
			return 'z'
		case 'đ', 'Đ':
			return 'd'
		default:
			return r
		}
	}, strings.TrimSpace(h)))
}

func trimFields(rec []string) []string {
	out := make([]string, len(rec))
	for i, f := range rec {
		out[i] = strings.TrimSpace(f)
	}
	return out
}

func isEmptyRow(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}
