package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	columns := ministryColumns
	columns.Code = "SIFRA"
	columns.Name = "NAZIV"

	crawler.Register(&csvAdapter{
		chain:    "studenac",
		indexURL: "https://www.studenac.hr/popis-maloprodajnih-cijena",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  columns,
	})
}
