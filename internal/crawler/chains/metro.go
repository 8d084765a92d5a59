package chains

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kosarica/catalog-service/internal/crawler"
	"github.com/kosarica/catalog-service/internal/parsers/csv"
	"github.com/kosarica/catalog-service/internal/parsers/xlsx"
)

// metroAdapter parses Metro's XLSX workbooks, one per cash-and-carry
// location.
type metroAdapter struct {
	indexURL string
	linkRe   *regexp.Regexp
}

func init() {
	crawler.Register(&metroAdapter{
		indexURL: "https://metrocjenik.com.hr/",
		linkRe:   regexp.MustCompile(`href="([^"]+\.xlsx[^"]*)"`),
	})
}

func (a *metroAdapter) Chain() string { return "metro" }

func (a *metroAdapter) GetAllProducts(ctx context.Context, date time.Time) ([]crawler.Store, error) {
	links, err := discoverLinks(ctx, a.indexURL, a.linkRe, date)
	if err != nil {
		return nil, err
	}
	return fetchStores(ctx, "metro", date, links, parseMetroWorkbook)
}

func parseMetroWorkbook(meta storeMeta, body []byte) (crawler.Store, error) {
	result, err := xlsx.Parse(body)
	if err != nil {
		return crawler.Store{}, err
	}

	nameIdx := result.HeaderIndex("NAZIV PROIZVODA")
	priceIdx := result.HeaderIndex("MALOPRODAJNA CIJENA")
	if nameIdx < 0 || priceIdx < 0 {
		return crawler.Store{}, fmt.Errorf("workbook is missing name/price columns")
	}

	codeIdx := result.HeaderIndex("ŠIFRA PROIZVODA")
	barcodeIdx := result.HeaderIndex("BARKOD")
	brandIdx := result.HeaderIndex("MARKA PROIZVODA")
	categoryIdx := result.HeaderIndex("KATEGORIJA PROIZVODA")
	unitIdx := result.HeaderIndex("JEDINICA MJERE")
	quantityIdx := result.HeaderIndex("NETO KOLIČINA")
	specialIdx := result.HeaderIndex("MPC ZA VRIJEME POSEBNOG OBLIKA PRODAJE")

	store := crawler.Store{
		Code:    meta.Code,
		Type:    meta.Type,
		Address: meta.Address,
		City:    meta.City,
		Zipcode: meta.Zipcode,
	}

	for _, row := range result.Rows {
		name := cell(row, nameIdx)
		price := csv.ParsePrice(cell(row, priceIdx))
		if name == "" || price == "" {
			continue
		}
		code := cell(row, codeIdx)
		if code == "" {
			code = cell(row, barcodeIdx)
		}
		if code == "" {
			continue
		}
		store.Products = append(store.Products, crawler.Product{
			Code:         code,
			Barcode:      cell(row, barcodeIdx),
			Name:         name,
			Brand:        cell(row, brandIdx),
			Category:     cell(row, categoryIdx),
			Unit:         cell(row, unitIdx),
			Quantity:     cell(row, quantityIdx),
			Price:        price,
			SpecialPrice: csv.ParsePrice(cell(row, specialIdx)),
		})
	}
	return store, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
