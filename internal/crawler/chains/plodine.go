package chains

import (
	"regexp"

	"github.com/kosarica/catalog-service/internal/crawler"
)

func init() {
	crawler.Register(&csvAdapter{
		chain:    "plodine",
		indexURL: "https://www.plodine.hr/info-o-cijenama",
		linkRe:   regexp.MustCompile(`href="([^"]+\.csv[^"]*)"`),
		columns:  ministryColumns,
	})
}
