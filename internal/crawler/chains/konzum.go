package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	crawler.Register(&csvAdapter{
		chain:    "konzum",
		indexURL: "https://www.konzum.hr/cjenici",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  ministryColumns,
	})
}
