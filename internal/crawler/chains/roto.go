package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	// Roto dinamic exports semicolon-delimited Windows-1250 files; the
	// shared parser autodetects both.
	columns := ministryColumns
	columns.Barcode = "EAN"

	crawler.Register(&csvAdapter{
		chain:    "roto",
		indexURL: "https://www.rotodinamic.hr/cjenici",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  columns,
	})
}
