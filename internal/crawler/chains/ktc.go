package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	crawler.Register(&csvAdapter{
		chain:    "ktc",
		indexURL: "https://www.ktc.hr/cjenici",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  ministryColumns,
	})
}
