package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	// Lidl publishes a daily directory listing; headers follow the
	// ministry set but with a shortened special-price label.
	columns := ministryColumns
	columns.SpecialPrice = "POSEBNA CIJENA"

	crawler.Register(&csvAdapter{
		chain:    "lidl",
		indexURL: "https://tvrtka.lidl.hr/cijene",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  columns,
	})
}
