package xlsx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Result holds the rows of one worksheet, header separated out.
type Result struct {
	Header []string
	Rows   [][]string
}

// Parse reads the first worksheet of an XLSX document. The first row is
// treated as the header; fully empty rows are dropped.
func Parse(content []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	result := &Result{}
	for i, row := range rows {
		for j, cell := range row {
			row[j] = strings.TrimSpace(cell)
		}
		if i == 0 {
			result.Header = row
			continue
		}
		if isEmptyRow(row) {
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// HeaderIndex resolves a header name to its column index, case-insensitive.
func (r *Result) HeaderIndex(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range r.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i
		}
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
